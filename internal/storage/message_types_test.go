package storage

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestNewResumeParsedEvent(t *testing.T) {
	c := &Candidate{ID: "c1", FirstName: "Jane", LastName: "Doe", Score: 72, Skills: []string{"go"}}
	e1 := NewResumeParsedEvent(c)
	e2 := NewResumeParsedEvent(c)

	assert.Equal(t, EventResumeParsed, e1.EventType)
	assert.Equal(t, "Jane Doe", e1.FullName)
	assert.Equal(t, 72, e1.Score)
	assert.NotEqual(t, e1.EventID, e2.EventID, "每个事件有唯一ID")
}

func TestAMQPHeaderCarrier(t *testing.T) {
	headers := amqp.Table{"x-count": 3}
	c := amqpHeaderCarrier(headers)
	c.Set("traceparent", "00-abc-def-01")

	assert.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("x-count"), "非字符串头忽略")
	assert.ElementsMatch(t, []string{"x-count", "traceparent"}, c.Keys())
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "resume/u1/original.pdf", OriginalObjectKey("u1", ".PDF"))
	assert.Equal(t, "resume/u1/parsed_text.txt", ParsedTextObjectKey("u1"))
	assert.Equal(t, "application/pdf", ContentTypeFor(".Pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor(".zip"))
}
