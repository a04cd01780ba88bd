package classifier

// classifier_bpfel.go / classifier_bpfeb.go and their embedded .o siblings
// are bpf2go output, committed so `go build` never needs clang or a kernel
// header tree. The checked-in .o files in this tree are placeholders pending
// a real run of this directive on a host with both available -- see
// DESIGN.md, "internal/classifier". Attach fails at runtime against a
// placeholder; it does not fail to build.
//go:generate go run github.com/cilium/ebpf/cmd/bpf2go -type packet_event -cc clang -cflags "-O2 -g -Wall" classifier ../../bpf/classifier.c -- -I../../bpf/headers
