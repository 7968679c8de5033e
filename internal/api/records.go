package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JustJay7/kanzlei/internal/balance"
	"github.com/JustJay7/kanzlei/internal/database"
	"github.com/JustJay7/kanzlei/internal/service"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RecordHandlers serves the routes nested under a single case.
type RecordHandlers struct {
	akten *service.AktenService
	log   *logger.Logger
}

func NewRecordHandlers(akten *service.AktenService, log *logger.Logger) *RecordHandlers {
	return &RecordHandlers{akten: akten, log: log}
}

type noteRequest struct {
	Titel       string         `json:"titel"`
	Inhalt      string         `json:"inhalt"`
	Typ         string         `json:"typ"`
	FaelligAm   string         `json:"faellig_am"`
	BetragSoll  balance.Amount `json:"betrag_soll"`
	BetragHaben balance.Amount `json:"betrag_haben"`
}

type documentRequest struct {
	Dateiname    string         `json:"dateiname" binding:"required"`
	Pfad         string         `json:"pfad"`
	Beschreibung string         `json:"beschreibung"`
	BetragSoll   balance.Amount `json:"betrag_soll"`
	BetragHaben  balance.Amount `json:"betrag_haben"`
}

// ListNotes returns all notes of a case
func (h *RecordHandlers) ListNotes(c *gin.Context) {
	notes, err := h.akten.Notes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// CreateNote adds a note, task or deadline to a case
func (h *RecordHandlers) CreateNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	due, err := parseDate(req.FaelligAm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note := &database.Notiz{
		Titel:       req.Titel,
		Inhalt:      req.Inhalt,
		Typ:         req.Typ,
		FaelligAm:   due,
		BetragSoll:  req.BetragSoll.Float64(),
		BetragHaben: req.BetragHaben.Float64(),
	}
	if err := h.akten.AddNote(c.Request.Context(), c.Param("id"), note); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// UpdateNote changes the fields present in the body
func (h *RecordHandlers) UpdateNote(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changes, err := noteChanges(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := h.akten.UpdateNote(c.Request.Context(), c.Param("id"), c.Param("noteId"), changes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *RecordHandlers) DeleteNote(c *gin.Context) {
	if err := h.akten.DeleteNote(c.Request.Context(), c.Param("id"), c.Param("noteId")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTasks returns Aufgaben and Fristen of a case
func (h *RecordHandlers) ListTasks(c *gin.Context) {
	tasks, err := h.akten.Tasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *RecordHandlers) CompleteTask(c *gin.Context) {
	task, err := h.akten.CompleteTask(c.Request.Context(), c.Param("id"), c.Param("noteId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *RecordHandlers) ListDocuments(c *gin.Context) {
	docs, err := h.akten.Documents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// CreateDocument records document metadata; the file itself is not uploaded here
func (h *RecordHandlers) CreateDocument(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := &database.Dokument{
		Dateiname:    req.Dateiname,
		Pfad:         req.Pfad,
		Beschreibung: req.Beschreibung,
		BetragSoll:   req.BetragSoll.Float64(),
		BetragHaben:  req.BetragHaben.Float64(),
	}
	if err := h.akten.AddDocument(c.Request.Context(), c.Param("id"), doc); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *RecordHandlers) DeleteDocument(c *gin.Context) {
	if err := h.akten.RemoveDocument(c.Request.Context(), c.Param("id"), c.Param("docId")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Balance returns Soll, Haben and net balance of a case
func (h *RecordHandlers) Balance(c *gin.Context) {
	summary, err := h.akten.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// NextAktenzeichen previews the next case number
func (h *RecordHandlers) NextAktenzeichen(c *gin.Context) {
	az, err := h.akten.NextAktenzeichen(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aktenzeichen": az})
}

// noteChanges maps a PUT body onto notizen columns. Unknown keys are ignored.
func noteChanges(body map[string]interface{}) (map[string]interface{}, error) {
	changes := map[string]interface{}{}
	for key, v := range body {
		switch key {
		case "titel", "inhalt", "typ":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a string", key)
			}
			changes[key] = s
		case "erledigt":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("erledigt must be a boolean")
			}
			changes[key] = b
		case "faellig_am":
			s, _ := v.(string)
			due, err := parseDate(s)
			if err != nil {
				return nil, err
			}
			changes[key] = due
		case "betrag_soll", "betrag_haben":
			amount, err := toAmount(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			changes[key] = amount
		}
	}

	if typ, ok := changes["typ"]; ok {
		switch typ {
		case database.TypNotiz, database.TypAufgabe, database.TypFrist:
		default:
			return nil, fmt.Errorf("unknown typ %q", typ)
		}
	}
	return changes, nil
}

func toAmount(v interface{}) (float64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	var a balance.Amount
	if err := a.UnmarshalJSON(data); err != nil {
		return 0, err
	}
	return a.Float64(), nil
}

// parseDate accepts 2006-01-02 and RFC 3339. Empty means no date.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}
