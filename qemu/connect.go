package qemu

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Connect dials the guest's SSH port with key-based auth and opens an
// SFTP session over the same connection, the pairing rclone's sftp
// backend uses for every remote file operation.
func Connect(ctx context.Context, addr, user, privateKeyPath string) (*ssh.Client, *sftp.Client, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("qemu: reading private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("qemu: parsing private key: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, nil, fmt.Errorf("qemu: dialing guest SSH: %w", err)
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("qemu: opening SFTP session: %w", err)
	}

	return client, sftpClient, nil
}
