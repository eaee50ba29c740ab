package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/vbrenderer/dynbuf"
	"github.com/gogpu/vbrenderer/pipelinecache"
	"github.com/gogpu/vbrenderer/renderpass"
	"github.com/gogpu/vbrenderer/transform"
)

func newTestDriver(t *testing.T) (*Driver, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	graph := renderpass.NewGraph()
	for _, kind := range renderpass.Order {
		graph.Pass(kind).SetRecreateHandler(func(reason renderpass.RecreateReason) error { return nil })
	}
	d := NewDriver(log, graph, pipelinecache.New(), transform.NewGraph())
	d.RunPass = func(kind renderpass.PassKind) error { return nil }
	return d, &buf
}

func TestRunFrameRunsAllPassesInOrder(t *testing.T) {
	d, _ := newTestDriver(t)
	var ran []renderpass.PassKind
	d.RunPass = func(kind renderpass.PassKind) error {
		ran = append(ran, kind)
		return nil
	}

	require.NoError(t, d.RunFrame())
	require.Equal(t, renderpass.Order[:], ran)
}

func TestRunFrameMissingPassRunnerReturnsError(t *testing.T) {
	d, _ := newTestDriver(t)
	d.RunPass = nil
	require.Error(t, d.RunFrame())
}

func TestRunFrameNotReadyLogsAndSkipsWithoutError(t *testing.T) {
	d, buf := newTestDriver(t)
	// Mark a pass needing recreate with a handler that fails, so
	// ReconcileAll cannot bring the graph to ready.
	d.Graph.Pass(renderpass.PassGeometry).SetRecreateHandler(func(reason renderpass.RecreateReason) error {
		return errors.New("device lost")
	})
	d.Graph.MarkNeedsRecreate(renderpass.PassGeometry, renderpass.ReasonDeviceLost)

	require.NoError(t, d.RunFrame())
	require.NotZero(t, buf.Len(), "expected a structured log record for the failed frame")
}

func TestRunFrameBufferFlushFailureSkipsFrame(t *testing.T) {
	d, buf := newTestDriver(t)
	src := dynbuf.NewBuddy[int](256, "test-buffer")
	d.Buffers = []dynbuf.Source{src}
	d.Flush = func(source dynbuf.Source, resize int, didResize bool) error {
		return errors.New("write_buffer failed")
	}

	require.NoError(t, d.RunFrame())
	require.NotZero(t, buf.Len(), "expected a structured log record for the failed flush")
}

func TestRunFrameFlushesEveryRegisteredBuffer(t *testing.T) {
	d, _ := newTestDriver(t)
	a := dynbuf.NewBuddy[int](256, "a")
	b := dynbuf.NewSlot[int](4, 16, 16, "b")
	d.Buffers = []dynbuf.Source{a, b}

	var flushed []string
	d.Flush = func(source dynbuf.Source, resize int, didResize bool) error {
		flushed = append(flushed, source.Label())
		return nil
	}

	require.NoError(t, d.RunFrame())
	require.Equal(t, []string{"a", "b"}, flushed)
}

func TestQueueMipmapTargetsDispatchedOnNextFrame(t *testing.T) {
	d, _ := newTestDriver(t)
	var got []uint64
	d.Mipmap = func(newEntryIDs []uint64) error {
		got = append(got, newEntryIDs...)
		return nil
	}

	d.QueueMipmapTargets([]uint64{1, 2, 3})
	require.NoError(t, d.RunFrame())
	require.Equal(t, []uint64{1, 2, 3}, got)

	// A second frame with nothing newly queued must not redispatch.
	got = nil
	require.NoError(t, d.RunFrame())
	require.Empty(t, got, "expected no mipmap dispatch on a frame with nothing queued")
}

func TestRunFrameMipmapFailureSkipsFrame(t *testing.T) {
	d, buf := newTestDriver(t)
	d.Mipmap = func(newEntryIDs []uint64) error { return errors.New("compile failed") }
	d.QueueMipmapTargets([]uint64{1})

	require.NoError(t, d.RunFrame())
	require.NotZero(t, buf.Len(), "expected a structured log record for the failed mipmap dispatch")
}

func TestNotifyPoolGrownOpaqueMarksOpaquePassForRecreate(t *testing.T) {
	d, _ := newTestDriver(t)
	d.NotifyPoolGrown(pipelinecache.OpaqueWholesale, nil)
	require.Equal(t, renderpass.StatusNeedsRecreate, d.Graph.Pass(renderpass.PassOpaqueShade).Status())
	require.NotEqual(t, renderpass.StatusNeedsRecreate, d.Graph.Pass(renderpass.PassTransparent).Status(),
		"expected the transparent pass to be untouched by an opaque-variant pool growth")
}

func TestNotifyPoolGrownTransparentMarksTransparentPassForRecreate(t *testing.T) {
	d, _ := newTestDriver(t)
	d.NotifyPoolGrown(pipelinecache.TransparentLazy, []string{"mesh-1"})
	require.Equal(t, renderpass.StatusNeedsRecreate, d.Graph.Pass(renderpass.PassTransparent).Status())
}

func TestRunFramePassExecutionFailureSkipsFrame(t *testing.T) {
	d, buf := newTestDriver(t)
	d.RunPass = func(kind renderpass.PassKind) error {
		if kind == renderpass.PassComposite {
			return errors.New("compute dispatch failed")
		}
		return nil
	}

	require.NoError(t, d.RunFrame())
	require.NotZero(t, buf.Len(), "expected a structured log record for the failed pass")
}

func TestRunFramePresentFailureSkipsFrame(t *testing.T) {
	d, buf := newTestDriver(t)
	d.Present = func() error { return errors.New("surface lost") }

	require.NoError(t, d.RunFrame())
	require.NotZero(t, buf.Len(), "expected a structured log record for the failed present")
}

func TestRunFrameNilPresentIsOptional(t *testing.T) {
	d, _ := newTestDriver(t)
	d.Present = nil
	require.NoError(t, d.RunFrame())
}
