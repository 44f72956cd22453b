package core

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
)

var Templates *template.Template

var templateFuncs = template.FuncMap{
	"default": func(value interface{}, defaultValue interface{}) interface{} {
		if value == nil || value == "" {
			return defaultValue
		}
		return value
	},
	"kindLabel": func(kind string) string {
		words := strings.Fields(strings.ReplaceAll(kind, "_", " "))
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		return strings.Join(words, " ")
	},
}

// LoadTemplates parses the template set once at startup.
func LoadTemplates(dir string) error {
	t, err := template.New("").Funcs(templateFuncs).ParseGlob(dir + "/*.html")
	if err != nil {
		return fmt.Errorf("error loading templates: %w", err)
	}
	Templates = t
	return nil
}

func RenderTemplate(w http.ResponseWriter, templateName string, data map[string]interface{}) {
	if Templates == nil {
		Errorf("templates not loaded, cannot render %s", templateName)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Templates.ExecuteTemplate(w, templateName, data); err != nil {
		Errorf("error rendering template %s: %v", templateName, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// renderNotFound is the shared 404 page for missing, unowned or soft-deleted
// records.
func renderNotFound(w http.ResponseWriter, what string) {
	w.WriteHeader(http.StatusNotFound)
	RenderTemplate(w, "error.html", map[string]interface{}{
		"Title":   "Not found",
		"Message": what + " not found",
	})
}
