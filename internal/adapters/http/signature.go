package http

import (
	"net/http"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/adapters/sms"
)

// verifyTwilio checks X-Twilio-Signature when a Twilio auth token and public
// URL are configured. Without them it lets every request through.
func (s *Server) verifyTwilio(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.twilioToken == "" || s.publicURL == "" {
			next.ServeHTTP(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		fullURL := s.publicURL + r.URL.RequestURI()
		if !sms.ValidateSignature(s.twilioToken, r.Header.Get("X-Twilio-Signature"), fullURL, r.PostForm) {
			s.logger.Warn("Rejected inbound SMS with invalid Twilio signature",
				logging.Phone(r.PostForm.Get("From")),
			)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
