package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Akte status values
const (
	StatusOffen       = "offen"
	StatusGeschlossen = "geschlossen"
	StatusArchiviert  = "archiviert"
)

// Notiz type tags
const (
	TypNotiz   = "notiz"
	TypAufgabe = "aufgabe"
	TypFrist   = "frist"
	TypArchiv  = "archiv"
)

// Mandant is the SQL half of a client; Stammdaten live in the sidecar file.
type Mandant struct {
	ID             string    `json:"id" gorm:"primaryKey;size:64"`
	Name           string    `json:"name" gorm:"size:255;not null"`
	Status         string    `json:"status" gorm:"size:50;not null;default:'aktiv'"`
	StammdatenPfad string    `json:"stammdaten_pfad"`
	CreatedAt      time.Time `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
}

// Gegner is an opposing or third party, optionally linked to an Akte.
type Gegner struct {
	ID             string    `json:"id" gorm:"primaryKey;size:64"`
	Name           string    `json:"name" gorm:"size:255;not null"`
	AktenID        *string   `json:"akten_id" gorm:"size:64;index"`
	StammdatenPfad string    `json:"stammdaten_pfad"`
	CreatedAt      time.Time `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
}

type Akte struct {
	ID            string         `json:"id" gorm:"primaryKey;size:64"`
	Aktenzeichen  string         `json:"aktenzeichen" gorm:"size:64;not null;uniqueIndex"`
	Status        string         `json:"status" gorm:"size:50;not null;default:'offen';index"`
	MandantenID   *string        `json:"mandanten_id" gorm:"size:64;index"`
	GegnerID      *string        `json:"gegner_id" gorm:"size:64"`
	DokumentePfad string         `json:"dokumente_pfad"`
	Metadaten     datatypes.JSON `json:"metadaten"`
	CreatedAt     time.Time      `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
}

type Dokument struct {
	ID            string    `json:"id" gorm:"primaryKey;size:64"`
	AkteID        string    `json:"akte_id" gorm:"size:64;not null;index"`
	Dateiname     string    `json:"dateiname" gorm:"size:255;not null"`
	Pfad          string    `json:"pfad" gorm:"not null"`
	Beschreibung  string    `json:"beschreibung"`
	BetragSoll    float64   `json:"betrag_soll" gorm:"type:numeric(12,2);not null;default:0"`
	BetragHaben   float64   `json:"betrag_haben" gorm:"type:numeric(12,2);not null;default:0"`
	HochgeladenAm time.Time `json:"hochgeladen_am" gorm:"autoCreateTime"`
}

// Notiz covers notes, tasks (Aufgaben), deadlines (Fristen) and archive snapshots.
type Notiz struct {
	ID          string     `json:"id" gorm:"primaryKey;size:64"`
	AkteID      string     `json:"akte_id" gorm:"size:64;not null;index"`
	Titel       string     `json:"titel" gorm:"size:255"`
	Inhalt      string     `json:"inhalt" gorm:"type:text"`
	Typ         string     `json:"typ" gorm:"size:20;not null;default:'notiz'"`
	FaelligAm   *time.Time `json:"faellig_am"`
	BetragSoll  float64    `json:"betrag_soll" gorm:"type:numeric(12,2);not null;default:0"`
	BetragHaben float64    `json:"betrag_haben" gorm:"type:numeric(12,2);not null;default:0"`
	Erledigt    bool       `json:"erledigt" gorm:"not null;default:false"`
	ErstelltAm  time.Time  `json:"erstellt_am" gorm:"autoCreateTime"`
}

// Einstellung is a key/value setting, e.g. aktenzeichen_start.
type Einstellung struct {
	ID         string `json:"id" gorm:"primaryKey;size:64"`
	Schluessel string `json:"schluessel" gorm:"size:100;not null;uniqueIndex"`
	Wert       string `json:"wert"`
}

// BeforeCreate hook to generate UUID
func (d *Dokument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (n *Notiz) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Mandant) TableName() string {
	return "mandanten"
}

func (Gegner) TableName() string {
	return "gegner"
}

func (Akte) TableName() string {
	return "akten"
}

func (Dokument) TableName() string {
	return "dokumente"
}

func (Notiz) TableName() string {
	return "notizen"
}

func (Einstellung) TableName() string {
	return "einstellungen"
}
