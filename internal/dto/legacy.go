package dto

// ── 旧系统导入 ──

// LegacyRejectItem 未导入的旧系统记录
type LegacyRejectItem struct {
	Kind    string `json:"kind"` // classe | cours | emploiDuTemps | seance
	ID      string `json:"id"`
	Message string `json:"message"`
}

// LegacyImportReport 旧系统导入结果
type LegacyImportReport struct {
	DryRun     bool               `json:"dry_run"`
	Classes    int                `json:"classes"`
	Courses    int                `json:"courses"`
	Timetables int                `json:"timetables"`
	Sessions   int                `json:"sessions"`
	Rejected   []LegacyRejectItem `json:"rejected"`
	Warnings   []LegacyRejectItem `json:"warnings"` // 已导入，但星期不在课表区间内
}
