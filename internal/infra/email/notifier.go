package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/port"
	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger, send: smtp.SendMail}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, notice port.FailureNotice) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	err := n.send(addr, nil, n.from, []string{notice.UserEmail}, buildMessage(n.from, notice))
	if err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", notice.UserEmail),
			zap.String("job_id", notice.JobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", notice.UserEmail),
		zap.String("job_id", notice.JobID),
	)
	return nil
}

func buildMessage(from string, notice port.FailureNotice) []byte {
	name := notice.FileName
	if name == "" {
		name = notice.VideoKey
	}

	subject := fmt.Sprintf("Frame extraction failed [Job %s]", notice.JobID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"We could not extract frames from your video after %d attempt(s).\r\n\r\n"+
			"Job ID: %s\r\n"+
			"Video: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"Please check the video and the extraction options, then submit it again.\r\n\r\n"+
			"-- Video Frame Extractor",
		notice.Attempts, notice.JobID, name, oneLine(notice.Reason),
	)

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, oneLine(notice.UserEmail), subject, body,
	))
}

// oneLine keeps header and body fields from injecting extra lines.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
