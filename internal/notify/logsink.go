package notify

import "github.com/rs/zerolog"

// LogCommentSink records comments to the log instead of an external thread.
// Useful as a stand-in when no clearing service is wired up.
type LogCommentSink struct {
	Log zerolog.Logger
}

func (s LogCommentSink) PostComment(clearingRequestID, author, text string) error {
	s.Log.Info().
		Str("clearing_request_id", clearingRequestID).
		Str("author", author).
		Str("text", text).
		Msg("clearing comment")
	return nil
}

// LogMailer records mails to the log instead of sending them.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) Send(recipients []string, subject, body string) error {
	m.Log.Info().
		Strs("recipients", recipients).
		Str("subject", subject).
		Msg("notification mail")
	return nil
}
