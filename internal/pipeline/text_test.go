package pipeline

import (
	"context"
	"testing"
)

func TestTextPipeline_PassesThroughUnmodified(t *testing.T) {
	pc := &Context{Bytes: []byte("plain content, no transform expected")}
	if err := TextPipeline().Run(context.Background(), pc); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if pc.Text != "plain content, no transform expected" {
		t.Errorf("Text = %q, unexpected transformation", pc.Text)
	}
}
