package email

import (
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (f *fakeSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &resend.SendEmailResponse{Id: "email_1"}, nil
}

func newTestClient(s sender) *Client {
	logger := zerolog.Nop()
	return &Client{emails: s, from: defaultFrom, logger: &logger}
}

func TestRenderPreviewData(t *testing.T) {
	for name, data := range PreviewData {
		html, err := Render(name, data)
		require.NoError(t, err, name)
		assert.NotEmpty(t, html)
	}
}

func TestFormatCycle(t *testing.T) {
	assert.Equal(t, "a -> b -> a", FormatCycle([]string{"a", "b"}))
	assert.Equal(t, "", FormatCycle(nil))
}

func TestSendTreeIntegrityAlert(t *testing.T) {
	fake := &fakeSender{}
	c := newTestClient(fake)

	report := PreviewData[TemplateTreeIntegrity].(TreeIntegrityReport)
	require.NoError(t, c.SendTreeIntegrityAlert("ops@example.com", report))

	require.Len(t, fake.sent, 1)
	assert.Equal(t, []string{"ops@example.com"}, fake.sent[0].To)
	assert.Equal(t, "[local] Workstation tree has 1 cycle(s)", fake.sent[0].Subject)
	assert.Contains(t, fake.sent[0].Html, report.WorkstationID)
	assert.Contains(t, fake.sent[0].Html, "-&gt;")
}

func TestSendEmailProviderError(t *testing.T) {
	c := newTestClient(&fakeSender{err: errors.New("boom")})
	err := c.SendEmail([]string{"ops@example.com"}, "s", TemplateTreeIntegrity, PreviewData[TemplateTreeIntegrity])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
}
