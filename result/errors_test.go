package result

import (
	"errors"
	"testing"
)

func TestFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "dns getaddrinfo",
			err:  errors.New("dial tcp: lookup example.invalid: getaddrinfo failed"),
			want: "DNS-Fehler: Domain konnte nicht aufgeloest werden (Tippfehler in der URL?)",
		},
		{
			name: "dns no such host",
			err:  errors.New("dial tcp: lookup example.invalid: no such host"),
			want: "DNS-Fehler: Domain konnte nicht aufgeloest werden (Tippfehler in der URL?)",
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:80: connect: connection refused"),
			want: "Verbindung abgelehnt: Server antwortet nicht auf diesem Port",
		},
		{
			name: "connection reset",
			err:  errors.New("read: connection reset by peer"),
			want: "Verbindung vom Server zurueckgesetzt",
		},
		{
			name: "timeout",
			err:  errors.New("context deadline exceeded (Client.Timeout exceeded while awaiting headers)"),
			want: "Timeout: Server hat nicht rechtzeitig geantwortet",
		},
		{
			name: "too many redirects",
			err:  errors.New("stopped after 10 redirects: too many redirects"),
			want: "Zu viele Weiterleitungen (Redirect-Schleife?)",
		},
		{
			name: "unrecognized falls back to raw text",
			err:  errors.New("something unexpected happened"),
			want: "something unexpected happened",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FriendlyMessage(tt.err)
			if got != tt.want {
				t.Errorf("FriendlyMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFriendlyMessageSSLIncludesOriginal(t *testing.T) {
	err := errors.New("x509: certificate signed by unknown authority")
	got := FriendlyMessage(err)
	want := "SSL/TLS-Fehler: x509: certificate signed by unknown authority"
	if got != want {
		t.Errorf("FriendlyMessage() = %q, want %q", got, want)
	}
}

func TestFriendlyMessageNil(t *testing.T) {
	if got := FriendlyMessage(nil); got != "" {
		t.Errorf("FriendlyMessage(nil) = %q, want empty string", got)
	}
}
