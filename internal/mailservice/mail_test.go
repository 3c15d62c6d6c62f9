package mailservice

import (
	"errors"
	"testing"

	"github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSendEmail(t *testing.T) {
	rendered := Rendered{Subject: "Test Subject", Plain: "Test Plain Body", HTML: "Test HTML Body"}

	testCases := []struct {
		name      string
		renderErr error
		dialErr   error
		wantErr   bool
		wantDials bool
	}{
		{name: "success", wantDials: true},
		{name: "template error", renderErr: errors.New("bad template"), wantErr: true},
		{name: "dial error", dialErr: errors.New("connection refused"), wantErr: true, wantDials: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockRenderer := new(MockTemplate)
			mockDialer := new(MockDialer)

			mailer := Mail{
				dialer:   mockDialer,
				renderer: mockRenderer,
				sender:   "sender@example.com",
			}

			if tc.renderErr != nil {
				mockRenderer.On("Render", "template.html", mock.Anything).Return(Rendered{}, tc.renderErr)
			} else {
				mockRenderer.On("Render", "template.html", mock.Anything).Return(rendered, nil)
			}

			mockDialer.On("DialAndSend", mock.MatchedBy(func(msgs []*mail.Message) bool {
				return len(msgs) == 1 && msgs[0].GetHeader("To")[0] == "test@example.com" && msgs[0].GetHeader("Subject")[0] == "Test Subject"
			})).Return(tc.dialErr)

			err := mailer.send("test@example.com", LinkData{Link: "x"}, "template.html")
			assert.Equal(t, tc.wantErr, err != nil)

			mockRenderer.AssertExpectations(t)
			if tc.wantDials {
				mockDialer.AssertExpectations(t)
			} else {
				mockDialer.AssertNotCalled(t, "DialAndSend", mock.Anything)
			}
		})
	}
}

func TestCompose(t *testing.T) {
	m := &Mail{sender: "Dreamblog <no-reply@example.com>"}

	msg := m.compose("reader@example.com", Rendered{Subject: "Hello", Plain: "plain", HTML: "<p>html</p>"})
	assert.Equal(t, []string{"Dreamblog <no-reply@example.com>"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"reader@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Hello"}, msg.GetHeader("Subject"))
}

func TestNewMailer(t *testing.T) {
	tp, err := NewTemplate()
	require.NoError(t, err)

	m := NewMailer("smtp.example.com", 587, "user", "pass", "Dreamblog <no-reply@example.com>", tp)
	assert.Equal(t, "Dreamblog <no-reply@example.com>", m.sender)
	assert.NotNil(t, m.dialer)
	assert.Same(t, tp, m.renderer)
}
