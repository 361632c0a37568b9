package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/logger"
	"github.com/groundcrewhq/groundcrew/internal/models"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT") == "production", "groundcrew-www")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	relay := newContactRelay(os.Getenv("CONTACT_RELAY_URL"), os.Getenv("CONTACT_RELAY_API_KEY"))
	handler := newServerHandler(relay, log)

	log.Info("groundcrew marketing site starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

// pageContent holds the per-language copy for the single-page site.
type pageContent struct {
	Lang         string
	Title        string
	Tagline      string
	Intro        string
	Services     []string
	ContactTitle string
	NameLabel    string
	EmailLabel   string
	MsgLabel     string
	SendLabel    string
	SwitchHref   string
	SwitchLabel  string
}

var content = map[string]pageContent{
	"en": {
		Lang:    "en",
		Title:   "Groundcrew",
		Tagline: "Sanitation and crowd management for large public events",
		Intro: "Groundcrew keeps mega-events running: live headcounts per zone, " +
			"staffed shifts matched to crowd density, facilities monitored and " +
			"serviced before they overflow.",
		Services: []string{
			"Zone-level crowd density monitoring",
			"Shift planning and staff deployment",
			"Toilet, bin and water-point upkeep",
			"Public issue reporting with response targets",
		},
		ContactTitle: "Contact us",
		NameLabel:    "Name",
		EmailLabel:   "Email",
		MsgLabel:     "Message",
		SendLabel:    "Send",
		SwitchHref:   "/hi/",
		SwitchLabel:  "हिन्दी",
	},
	"hi": {
		Lang:    "hi",
		Title:   "ग्राउंडक्रू",
		Tagline: "बड़े सार्वजनिक आयोजनों के लिए स्वच्छता और भीड़ प्रबंधन",
		Intro: "ग्राउंडक्रू बड़े आयोजनों को सुचारु रखता है: हर ज़ोन में लाइव हेडकाउंट, " +
			"भीड़ के अनुसार शिफ्ट में तैनात कर्मचारी, और सुविधाओं की निगरानी ताकि " +
			"समस्या बढ़ने से पहले सेवा हो।",
		Services: []string{
			"ज़ोन स्तर पर भीड़ घनत्व की निगरानी",
			"शिफ्ट योजना और कर्मचारी तैनाती",
			"शौचालय, कूड़ेदान और जल-बिंदु रखरखाव",
			"प्रतिक्रिया लक्ष्यों के साथ सार्वजनिक शिकायत सुविधा",
		},
		ContactTitle: "संपर्क करें",
		NameLabel:    "नाम",
		EmailLabel:   "ईमेल",
		MsgLabel:     "संदेश",
		SendLabel:    "भेजें",
		SwitchHref:   "/",
		SwitchLabel:  "English",
	},
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="{{.Lang}}">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.Title}}</title>
    <style>
      body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 680px; padding: 0 1rem; line-height: 1.5; }
      h1 { margin-bottom: 0.25rem; }
      .tagline { color: #4b5563; margin-bottom: 1.5rem; }
      .lang { float: right; }
      form { display: grid; gap: 0.75rem; max-width: 420px; }
      label { font-weight: 600; display: grid; gap: 0.25rem; }
      input, textarea { border: 1px solid #d1d5db; border-radius: 8px; padding: 0.6rem 0.7rem; font-size: 1rem; }
      button { border: 0; border-radius: 8px; padding: 0.7rem 1rem; font-size: 1rem; cursor: pointer; background: #166534; color: #fff; }
      #status { min-height: 1.2rem; }
    </style>
  </head>
  <body>
    <a class="lang" href="{{.SwitchHref}}">{{.SwitchLabel}}</a>
    <h1>{{.Title}}</h1>
    <p class="tagline">{{.Tagline}}</p>
    <p>{{.Intro}}</p>
    <ul>{{range .Services}}<li>{{.}}</li>{{end}}</ul>
    <h2>{{.ContactTitle}}</h2>
    <form id="contact-form" novalidate>
      <label>{{.NameLabel}}<input type="text" name="name" autocomplete="name" required /></label>
      <label>{{.EmailLabel}}<input type="email" name="email" autocomplete="email" required /></label>
      <label>{{.MsgLabel}}<textarea name="message" rows="5" required></textarea></label>
      <button type="submit">{{.SendLabel}}</button>
      <div id="status" role="alert"></div>
    </form>
    <script>
      const form = document.getElementById('contact-form');
      form.addEventListener('submit', async (e) => {
        e.preventDefault();
        const body = Object.fromEntries(new FormData(form).entries());
        const status = document.getElementById('status');
        try {
          const resp = await fetch('/contact', {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify(body),
          });
          status.textContent = resp.ok ? '✓' : '✗';
        } catch {
          status.textContent = '✗';
        }
      });
    </script>
  </body>
</html>`))

func newServerHandler(relay *contactRelay, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		handleContact(w, r, relay, log)
	})

	mux.HandleFunc("/hi/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hi/" {
			http.NotFound(w, r)
			return
		}
		renderPage(w, "hi")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		renderPage(w, "en")
	})

	return mux
}

func renderPage(w http.ResponseWriter, lang string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = pageTemplate.Execute(w, content[lang])
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (c *contactRequest) validate() string {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	c.Message = strings.TrimSpace(c.Message)
	switch {
	case c.Name == "":
		return "name is required"
	case !models.ValidEmail(c.Email):
		return "email must be valid"
	case c.Message == "":
		return "message is required"
	}
	return ""
}

func handleContact(w http.ResponseWriter, r *http.Request, relay *contactRelay, log *zap.Logger) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if problem := req.validate(); problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	if err := relay.Send(r.Context(), req); err != nil {
		log.Warn("contact relay failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "message could not be delivered"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// contactRelay forwards contact submissions to the external email relay.
type contactRelay struct {
	http *resty.Client
}

func newContactRelay(baseURL, apiKey string) *contactRelay {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &contactRelay{http: client}
}

func (c *contactRelay) Send(ctx context.Context, req contactRequest) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"name":    req.Name,
			"email":   req.Email,
			"message": req.Message,
		}).
		Post("/v1/messages")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("relay rejected message: %s", resp.Status())
	}
	return nil
}
