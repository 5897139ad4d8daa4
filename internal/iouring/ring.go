//go:build linux

// File: internal/iouring/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ring owns the mmap'd submission and completion queues for one io_uring
// instance and the raw syscalls that drive them. It is not safe for
// concurrent use; callers serialize access, just as the dispatcher's callers
// serialize its registration API against its completion loop.

package iouring

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// CQE is a decoded completion queue entry.
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// Ring wraps one io_uring file descriptor and its mmap'd queues.
type Ring struct {
	fd int

	sqMmap     []byte
	cqMmap     []byte
	sqes       []byte // separate mmap of SQ entries
	singleMmap bool    // cqMmap aliases sqMmap when the kernel sets featSingleMmap

	sqHead        *uint32
	sqTail        *uint32
	sqRingMask    uint32
	sqRingEntries uint32
	sqArray       []uint32

	cqHead        *uint32
	cqTail        *uint32
	cqRingMask    uint32
	cqRingEntries uint32
	cqes          []byte

	sqeTail uint32 // local, not-yet-submitted tail
}

// Open creates a new io_uring instance with entries submission slots.
func Open(entries uint32) (*Ring, error) {
	var params ringParams
	params.Flags = setupClamp

	fdv, _, errno := unix.Syscall(sysIoURingSetup, uintptr(entries), uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("iouring: io_uring_setup: %w", errno)
	}
	fd := int(fdv)

	sqRingSize := uint64(params.SQOffset.Array) + uint64(params.SQEntries)*4
	cqRingSize := uint64(params.CQOffset.Cqes) + uint64(params.CQEntries)*cqeSize

	sqMmap, err := unix.Mmap(fd, 0, int(sqRingSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("iouring: mmap sq ring: %w", err)
	}

	singleMmap := params.Features&featSingleMmap != 0

	var cqMmap []byte
	if singleMmap {
		cqMmap = sqMmap
	} else {
		cqMmap, err = unix.Mmap(fd, int64(offCQRing), int(cqRingSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			unix.Munmap(sqMmap)
			unix.Close(fd)
			return nil, fmt.Errorf("iouring: mmap cq ring: %w", err)
		}
	}

	sqeBytes := uint64(params.SQEntries) * sqeSize
	sqes, err := unix.Mmap(fd, int64(offSQEs), int(sqeBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		if !singleMmap {
			unix.Munmap(cqMmap)
		}
		unix.Munmap(sqMmap)
		unix.Close(fd)
		return nil, fmt.Errorf("iouring: mmap sqes: %w", err)
	}

	r := &Ring{
		fd:            fd,
		sqMmap:        sqMmap,
		cqMmap:        cqMmap,
		sqes:          sqes,
		singleMmap:    singleMmap,
		sqRingMask:    loadU32(sqMmap, params.SQOffset.RingMask),
		sqRingEntries: loadU32(sqMmap, params.SQOffset.RingEntries),
		cqRingMask:    loadU32(cqMmap, params.CQOffset.RingMask),
		cqRingEntries: loadU32(cqMmap, params.CQOffset.RingEntries),
		cqes:          cqMmap[params.CQOffset.Cqes:],
	}
	r.sqHead = ptrU32(sqMmap, params.SQOffset.Head)
	r.sqTail = ptrU32(sqMmap, params.SQOffset.Tail)
	r.cqHead = ptrU32(cqMmap, params.CQOffset.Head)
	r.cqTail = ptrU32(cqMmap, params.CQOffset.Tail)

	arrayOff := params.SQOffset.Array
	arrayLen := int(params.SQEntries)
	r.sqArray = unsafe.Slice((*uint32)(unsafe.Pointer(&sqMmap[arrayOff])), arrayLen)

	r.sqeTail = *r.sqHead
	return r, nil
}

// Close tears down the ring's mmaps and the io_uring fd itself.
func (r *Ring) Close() error {
	unix.Munmap(r.sqes)
	if !r.singleMmap {
		unix.Munmap(r.cqMmap)
	}
	unix.Munmap(r.sqMmap)
	return unix.Close(r.fd)
}

// sqeAt returns the raw 64-byte slice for submission slot index.
func (r *Ring) sqeAt(index uint32) []byte {
	off := int(index&(r.sqRingEntries-1)) * sqeSize
	return r.sqes[off : off+sqeSize]
}

// PushPollAdd stages an IORING_OP_POLL_ADD SQE arming fd for pollMask events,
// tagged with userData, without submitting it. Returns false if the
// submission queue is full.
func (r *Ring) PushPollAdd(fd int32, pollMask uint32, userData uint64) bool {
	head := loadAcquire(r.sqHead)
	if r.sqeTail-head >= r.sqRingEntries {
		return false
	}
	idx := r.sqeTail
	sqe := r.sqeAt(idx)
	for i := range sqe {
		sqe[i] = 0
	}
	sqe[0] = opPollAdd
	binary.LittleEndian.PutUint32(sqe[4:8], uint32(fd))
	binary.LittleEndian.PutUint32(sqe[28:32], pollMask)
	binary.LittleEndian.PutUint64(sqe[32:40], userData)
	r.sqArray[idx&r.sqRingMask] = idx & (r.sqRingEntries - 1)
	r.sqeTail++
	return true
}

// PushPollRemove stages an IORING_OP_POLL_REMOVE SQE cancelling the poll
// tagged with targetUserData, itself tagged with userData. Returns false if
// the submission queue is full.
func (r *Ring) PushPollRemove(targetUserData, userData uint64) bool {
	head := loadAcquire(r.sqHead)
	if r.sqeTail-head >= r.sqRingEntries {
		return false
	}
	idx := r.sqeTail
	sqe := r.sqeAt(idx)
	for i := range sqe {
		sqe[i] = 0
	}
	sqe[0] = opPollRemove
	binary.LittleEndian.PutUint64(sqe[16:24], targetUserData) // addr carries the target token
	binary.LittleEndian.PutUint64(sqe[32:40], userData)
	r.sqArray[idx&r.sqRingMask] = idx & (r.sqRingEntries - 1)
	r.sqeTail++
	return true
}

// Pending reports how many staged SQEs have not yet been flushed to the
// kernel's visible tail.
func (r *Ring) Pending() uint32 {
	return r.sqeTail - loadAcquire(r.sqTail)
}

// Flush publishes every staged SQE to the kernel and calls io_uring_enter to
// submit them, without waiting for completions.
func (r *Ring) Flush() (int, error) {
	toSubmit := r.Pending()
	if toSubmit == 0 {
		return 0, nil
	}
	storeRelease(r.sqTail, r.sqeTail)
	n, _, errno := unix.Syscall6(sysIoURingEnter, uintptr(r.fd), uintptr(toSubmit), 0, 0, 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("iouring: io_uring_enter submit: %w", errno)
	}
	return int(n), nil
}

// EnterWait calls io_uring_enter asking the kernel to block until at least
// minComplete completions are available, requesting submission of any
// pending SQEs at the same time.
func (r *Ring) EnterWait(minComplete uint32) error {
	toSubmit := r.Pending()
	if toSubmit > 0 {
		storeRelease(r.sqTail, r.sqeTail)
	}
	_, _, errno := unix.Syscall6(sysIoURingEnter, uintptr(r.fd), uintptr(toSubmit), uintptr(minComplete), uintptr(enterGetEvents), 0, 0)
	if errno != 0 {
		return fmt.Errorf("iouring: io_uring_enter wait: %w", errno)
	}
	return nil
}

// PeekCQE returns up to len(out) completions currently available without
// blocking, advancing the CQ head past them.
func (r *Ring) PeekCQE(out []CQE) int {
	head := loadAcquire(r.cqHead)
	tail := loadAcquire(r.cqTail)
	n := 0
	for head != tail && n < len(out) {
		off := int(head&r.cqRingMask) * cqeSize
		entry := r.cqes[off : off+cqeSize]
		out[n] = CQE{
			UserData: binary.LittleEndian.Uint64(entry[0:8]),
			Res:      int32(binary.LittleEndian.Uint32(entry[8:12])),
			Flags:    binary.LittleEndian.Uint32(entry[12:16]),
		}
		head++
		n++
	}
	storeRelease(r.cqHead, head)
	return n
}

func loadU32(b []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func ptrU32(b []byte, off uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&b[off]))
}

func loadAcquire(p *uint32) uint32 {
	return atomic.LoadUint32(p)
}

func storeRelease(p *uint32, v uint32) {
	atomic.StoreUint32(p, v)
}
