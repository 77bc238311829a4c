package encode

// ExecutorHeader and ExecutorSource are the fixed C runtime the encoder's
// generated test_workload() is compiled against. They never change
// between workloads, which is what lets the runner compile a harness
// binary once and reuse it across both sides of a differential test
// (spec.md 6.5): every do_* call appends one row to trace.csv in the
// working directory, in the exact shape the trace comparator expects
// (spec.md 6.4).

const ExecutorHeader = `#ifndef DIFFUZZER_EXECUTOR_H
#define DIFFUZZER_EXECUTOR_H

#include <stddef.h>

void do_mkdir(const char *path, int mode);
void do_create(const char *path, int mode);
void do_remove(const char *path);
void do_hardlink(const char *old_path, const char *new_path);
void do_symlink(const char *target, const char *link_path);
void do_rename(const char *old_path, const char *new_path);
int  do_open(const char *path);
void do_close(int fd);
void do_read(int fd, size_t size);
void do_write(int fd, size_t src_offset, size_t size);
void do_fsync(int fd);

void test_workload(void);

#endif
`

const ExecutorSource = `#include "executor.h"

#include <errno.h>
#include <fcntl.h>
#include <stdio.h>
#include <string.h>
#include <sys/stat.h>
#include <sys/types.h>
#include <unistd.h>

static FILE *trace_file;
static long trace_index;
static char iobuf[131072];

static void trace_open(void) {
    if (trace_file == NULL) {
        trace_file = fopen("trace.csv", "w");
        fprintf(trace_file, "Index,Command,ReturnCode,Errno,Extra\n");
    }
}

static void trace_row(const char *command, long rc, const char *extra) {
    trace_open();
    if (rc < 0) {
        fprintf(trace_file, "%ld,%s,%ld,%s(%d),%s\n",
                trace_index, command, rc, strerror(errno), errno, extra);
    } else {
        fprintf(trace_file, "%ld,%s,%ld,,%s\n", trace_index, command, rc, extra);
    }
    trace_index++;
    fflush(trace_file);
}

void do_mkdir(const char *path, int mode) {
    int rc = mkdir(path, (mode_t) mode);
    trace_row("mkdir", rc, path);
}

void do_create(const char *path, int mode) {
    int fd = open(path, O_CREAT | O_EXCL, (mode_t) mode);
    if (fd >= 0) close(fd);
    trace_row("create", fd, path);
}

void do_remove(const char *path) {
    int rc = remove(path);
    if (rc != 0) rc = rmdir(path);
    trace_row("remove", rc, path);
}

void do_hardlink(const char *old_path, const char *new_path) {
    int rc = link(old_path, new_path);
    trace_row("hardlink", rc, new_path);
}

void do_symlink(const char *target, const char *link_path) {
    int rc = symlink(target, link_path);
    trace_row("symlink", rc, link_path);
}

void do_rename(const char *old_path, const char *new_path) {
    int rc = rename(old_path, new_path);
    trace_row("rename", rc, new_path);
}

int do_open(const char *path) {
    int fd = open(path, O_RDWR);
    trace_row("open", fd, path);
    return fd;
}

void do_close(int fd) {
    int rc = -1;
    if (fd >= 0) rc = close(fd);
    trace_row("close", rc, "");
}

void do_read(int fd, size_t size) {
    ssize_t total = 0;
    if (fd >= 0) {
        size_t remaining = size;
        size_t chunk = remaining > sizeof(iobuf) ? sizeof(iobuf) : remaining;
        while (remaining > 0) {
            ssize_t n = read(fd, iobuf, chunk);
            if (n <= 0) break;
            total += n;
            remaining -= (size_t) n;
            chunk = remaining > sizeof(iobuf) ? sizeof(iobuf) : remaining;
        }
    }
    trace_row("read", total, "");
}

void do_write(int fd, size_t src_offset, size_t size) {
    ssize_t total = 0;
    if (fd >= 0) {
        memset(iobuf, (int) (src_offset & 0xff), sizeof(iobuf));
        size_t remaining = size;
        size_t chunk = remaining > sizeof(iobuf) ? sizeof(iobuf) : remaining;
        while (remaining > 0) {
            ssize_t n = write(fd, iobuf, chunk);
            if (n <= 0) break;
            total += n;
            remaining -= (size_t) n;
            chunk = remaining > sizeof(iobuf) ? sizeof(iobuf) : remaining;
        }
    }
    trace_row("write", total, "");
}

void do_fsync(int fd) {
    int rc = -1;
    if (fd >= 0) rc = fsync(fd);
    trace_row("fsync", rc, "");
}
`
