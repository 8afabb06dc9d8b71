package redpanda

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The server defers Close and logs its error; keep the io.Closer shape.
var _ io.Closer = (*Producer)(nil)

func TestClose_NilClient(t *testing.T) {
	p := &Producer{}
	assert.NoError(t, p.Close())
}

func TestNewProducer_NoBrokers(t *testing.T) {
	p, err := NewProducer(nil)
	assert.Nil(t, p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no seed brokers")
}

func TestTopicConstant(t *testing.T) {
	assert.Equal(t, "interview-events", TopicInterviewEvents)
}
