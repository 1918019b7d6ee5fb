package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRenderer_AllTemplatesHaveSubjects(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	for name := range r.templates {
		_, ok := templateSubjects[name]
		assert.True(t, ok, "missing subject for %s", name)
	}
	assert.Len(t, r.templates, len(templateSubjects))
}

func TestRenderer_TicketConfirmation(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	msg, err := r.Render(TemplateTicketConfirmation, "dana@example.com", "Dana Cohen", map[string]string{
		"ClientName": "Dana Cohen",
		"TicketID":   "abc",
		"Urgency":    "High",
		"Summary":    "Landlord dispute",
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", msg.To)
	assert.Equal(t, "We received your request", msg.Subject)
	assert.Contains(t, msg.HTML, "Dear Dana Cohen")
	assert.Contains(t, msg.HTML, "Landlord dispute")
}

func TestRenderer_EscapesClientInput(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	msg, err := r.Render(TemplateLawyerNotification, "lawyer@example.com", "", map[string]string{
		"ClientName": "Dana",
		"Summary":    "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	_, err = r.Render(TemplateName("missing.gohtml"), "a@b.c", "", nil)
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(zap.NewNop()).Send(context.Background(), Message{To: "a@b.c"}))
}
