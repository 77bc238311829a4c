package generator

import "github.com/diffuzzer/diffuzzer/abstractfs"

// Weights maps each operation kind to its sampling weight, mirroring
// the TOML config's operation_weights.weights list (spec.md 6.2).
type Weights map[abstractfs.OperationKind]uint32

// DefaultWeights favors Read and Write (15), then MkDir, Create, Open
// and Close (10), over Remove, Hardlink, Symlink, Rename and FSync (5);
// config.Config
// overrides these from the operation_weights.weights TOML table.
func DefaultWeights() Weights {
	return Weights{
		abstractfs.OpMkDir:   10,
		abstractfs.OpCreate:  10,
		abstractfs.OpRemove:  5,
		abstractfs.OpHardlink: 5,
		abstractfs.OpSymlink: 5,
		abstractfs.OpRename:  5,
		abstractfs.OpOpen:    10,
		abstractfs.OpClose:   10,
		abstractfs.OpRead:    15,
		abstractfs.OpWrite:   15,
		abstractfs.OpFSync:   5,
	}
}
