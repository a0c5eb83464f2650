//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package arena

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// Create makes a file-backed shared region at path, owned by the caller.
// An existing file is truncated.
func Create(path string, size int) (*Region, error) {
	if size < PreambleSize {
		size = PreambleSize
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	if err = file.Truncate(int64(size)); err != nil {
		file.Close()
		return nil, fmt.Errorf("resize %s: %v", path, err)
	}
	mem, err := mmap(file, size)
	if err != nil {
		file.Close()
		return nil, err
	}
	r := &Region{mem: mem, owner: true, file: file, unmap: unix.Munmap}
	r.base = uintptr(unsafe.Pointer(&mem[0]))
	r.writePreamble()
	glog.V(2).Infof("arena: created %s (%d bytes) at %#x", path, size, r.base)
	return r, nil
}

// Open maps an existing region created by another process. The returned
// region translates addresses using the creator's base address.
func Open(path string) (*Region, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() < PreambleSize {
		file.Close()
		return nil, ErrBadMagic
	}
	mem, err := mmap(file, int(info.Size()))
	if err != nil {
		file.Close()
		return nil, err
	}
	r := &Region{mem: mem, file: file, unmap: unix.Munmap}
	if err = r.readPreamble(); err != nil {
		unix.Munmap(mem)
		file.Close()
		return nil, err
	}
	glog.V(2).Infof("arena: opened %s (%d bytes), device base %#x", path, len(r.mem), r.base)
	return r, nil
}

func mmap(file *os.File, size int) ([]byte, error) {
	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %v", file.Name(), err)
	}
	return mem, nil
}
