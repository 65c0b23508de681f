package uglc

import "testing"

type fakeConsumer struct {
	frames []*FrameResult
}

func (c *fakeConsumer) Consume(fr *FrameResult) error {
	c.frames = append(c.frames, fr)
	return nil
}

func accHit(str, mod int, raw int64, offset int64) *Hit {
	g := &Group{ID: "g", Offset: offset}
	return &Hit{Group: g, Channel: ChannelId{StringID: str, ModuleID: mod, PMTID: 0}, Pulse: Pulse{RawTime: raw}}
}

func TestAccumulator_S6_EndOfStreamWavefront(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewAccumulator(consumer)
	a.ExpectFrame("f1", nil, 0, 100)

	if err := a.Enqueue(accHit(1, 1, 10, 0)); err != nil {
		t.Fatal(err)
	}
	if err := a.Enqueue(accHit(1, 1, 50, 0)); err != nil {
		t.Fatal(err)
	}
	if err := a.EndOfStream(); err != nil {
		t.Fatal(err)
	}

	if len(consumer.frames) != 1 {
		t.Fatalf("expected exactly one frame delivered, got %d", len(consumer.frames))
	}
	if len(consumer.frames[0].Hits) != 2 {
		t.Fatalf("expected 2 hits in frame, got %d", len(consumer.frames[0].Hits))
	}
}

func TestAccumulator_MultipleFramesInOrder(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewAccumulator(consumer)
	a.ExpectFrame("f1", nil, 0, 100)
	a.ExpectFrame("f2", nil, 101, 200)

	if err := a.Enqueue(accHit(1, 1, 10, 0)); err != nil {
		t.Fatal(err)
	}
	if err := a.Enqueue(accHit(1, 1, 150, 0)); err != nil {
		t.Fatal(err)
	}
	if err := a.EndOfStream(); err != nil {
		t.Fatal(err)
	}

	if len(consumer.frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(consumer.frames))
	}
	if consumer.frames[0].ID != "f1" || consumer.frames[1].ID != "f2" {
		t.Fatalf("frames delivered out of input order: %v", consumer.frames)
	}
}

func TestAccumulator_HitPredatesFrame(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewAccumulator(consumer)
	a.ExpectFrame("f1", nil, 100, 200)

	err := a.Enqueue(accHit(1, 1, 5, 0))
	pe, ok := AsPipelineError(err)
	if !ok || pe.Kind != HitPredatesFrame {
		t.Fatalf("expected HitPredatesFrame, got %v", err)
	}
}

func TestAccumulator_OrphanHit(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewAccumulator(consumer)

	err := a.Enqueue(accHit(1, 1, 5, 0))
	pe, ok := AsPipelineError(err)
	if !ok || pe.Kind != OrphanHit {
		t.Fatalf("expected OrphanHit, got %v", err)
	}
}

func TestAccumulator_EOSAccumulatorMismatch(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewAccumulator(consumer)
	a.ExpectFrame("f1", nil, 0, 100)
	a.ExpectFrame("f2", nil, 101, 200)

	err := a.EndOfStream()
	pe, ok := AsPipelineError(err)
	if !ok || pe.Kind != EOSAccumulatorMismatch {
		t.Fatalf("expected EOSAccumulatorMismatch, got %v", err)
	}
}

func TestAccumulator_SMLCAndMMLCCounts(t *testing.T) {
	consumer := &fakeConsumer{}
	a := NewAccumulator(consumer)
	a.ExpectFrame("f1", nil, 0, 100)

	h1 := accHit(1, 1, 10, 0)
	h1.SMLC = true
	h2 := accHit(1, 1, 20, 0)
	h2.MMLC = true

	if err := a.Enqueue(h1); err != nil {
		t.Fatal(err)
	}
	if err := a.Enqueue(h2); err != nil {
		t.Fatal(err)
	}
	if err := a.EndOfStream(); err != nil {
		t.Fatal(err)
	}

	fr := consumer.frames[0]
	if fr.SMLCCount != 1 || fr.MMLCCount != 1 {
		t.Fatalf("expected smlc_cnt=1 mmlc_cnt=1, got %d/%d", fr.SMLCCount, fr.MMLCCount)
	}
}
