package result

import "strings"

// FriendlyMessage translates a low-level transport error into the
// user-facing German message the UI and reports show. Matching is
// keyword-based against the lower-cased error text, mirroring the mapping
// the crawler has always used; anything unrecognized falls back to the
// error's own text.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "getaddrinfo") || strings.Contains(msg, "name or service not known") || strings.Contains(msg, "no such host"):
		return "DNS-Fehler: Domain konnte nicht aufgeloest werden (Tippfehler in der URL?)"
	case strings.Contains(msg, "no address associated"):
		return "DNS-Fehler: Keine IP-Adresse fuer diese Domain gefunden"
	case strings.Contains(msg, "connection refused"):
		return "Verbindung abgelehnt: Server antwortet nicht auf diesem Port"
	case strings.Contains(msg, "connection reset"):
		return "Verbindung vom Server zurueckgesetzt"
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout"):
		return "Timeout: Server hat nicht rechtzeitig geantwortet"
	case strings.Contains(msg, "ssl") || strings.Contains(msg, "certificate"):
		return "SSL/TLS-Fehler: " + err.Error()
	case strings.Contains(msg, "too many redirects"):
		return "Zu viele Weiterleitungen (Redirect-Schleife?)"
	default:
		return err.Error()
	}
}
