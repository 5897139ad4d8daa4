//go:build linux

// File: internal/iouring/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Kernel ABI mirrors for io_uring setup parameters, the SQE and the CQE.
// Field layouts and offsets follow the uapi/linux/io_uring.h structures.

package iouring

const (
	sysIoURingSetup    = 425
	sysIoURingEnter    = 426
	sysIoURingRegister = 427

	setupClamp uint32 = 1 << 4

	// IORING_OP_POLL_ADD submits a one-shot poll on an fd; IORING_OP_POLL_REMOVE
	// cancels a previously submitted poll by its user_data token.
	opPollAdd    uint8 = 6
	opPollRemove uint8 = 7

	enterGetEvents uint32 = 1 << 0

	sqeSize = 64
	cqeSize = 16

	offSQRing uint64 = 0x00000000
	offCQRing uint64 = 0x08000000
	offSQEs   uint64 = 0x10000000
)

// ringParams mirrors struct io_uring_params.
type ringParams struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32

	SQOffset sqRingOffsets
	CQOffset cqRingOffsets
}

// sqRingOffsets mirrors struct io_sqring_offsets.
type sqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

// cqRingOffsets mirrors struct io_cqring_offsets.
type cqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint32
	Resv1       uint32
	Resv2       uint64
}

// featSingleMmap indicates the kernel serves SQ and CQ ring metadata from a
// single mmap of the ring fd at offset 0. Kernels since 5.4 always set it;
// when it is clear, Open maps the CQ ring separately at offCQRing.
const featSingleMmap uint32 = 1 << 0

// pollEvents mirrors the poll(2) event bits used by IORING_OP_POLL_ADD's
// poll32_events field, which is a plain uint32 (not the SQE len/off union).
const (
	pollIn   uint32 = 0x001
	pollOut  uint32 = 0x004
	pollErr  uint32 = 0x008
	pollHup  uint32 = 0x010
	pollNval uint32 = 0x020
)
