package sim

import "testing"

func TestCommandBufferFIFO(t *testing.T) {
	buffer := NewCommandBuffer(4, nil)
	for seq := 1; seq <= 3; seq++ {
		if !buffer.Push(Command{Seq: uint64(seq)}) {
			t.Fatalf("push %d rejected with free capacity", seq)
		}
	}
	if buffer.Len() != 3 {
		t.Fatalf("expected 3 staged commands, got %d", buffer.Len())
	}

	drained := buffer.Drain()
	for i, cmd := range drained {
		if cmd.Seq != uint64(i+1) {
			t.Fatalf("drain order broken: %v", drained)
		}
	}
	if buffer.Len() != 0 {
		t.Fatalf("drain left %d commands staged", buffer.Len())
	}
}

func TestCommandBufferOverflowRejects(t *testing.T) {
	buffer := NewCommandBuffer(2, nil)
	buffer.Push(Command{Seq: 1})
	buffer.Push(Command{Seq: 2})
	if buffer.Push(Command{Seq: 3}) {
		t.Fatalf("push into a full buffer must fail")
	}
	// The staged commands are untouched.
	drained := buffer.Drain()
	if len(drained) != 2 || drained[0].Seq != 1 || drained[1].Seq != 2 {
		t.Fatalf("overflow disturbed staged commands: %v", drained)
	}
}

func TestCommandBufferReusableAfterDrain(t *testing.T) {
	buffer := NewCommandBuffer(2, nil)
	buffer.Push(Command{Seq: 1})
	buffer.Push(Command{Seq: 2})
	buffer.Drain()
	if !buffer.Push(Command{Seq: 3}) {
		t.Fatalf("push after drain rejected")
	}
	drained := buffer.Drain()
	if len(drained) != 1 || drained[0].Seq != 3 {
		t.Fatalf("unexpected drain result: %v", drained)
	}
}
