package storage

import "time"

// credentialRow is the primary key of the single stored session.
const credentialRow = 1

type Credential struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`

	Token string `gorm:"type:text;not null" json:"-"`
}

type ActionLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Kind   string `gorm:"index;not null" json:"kind"` // e.g. settings.kill_switch
	Target string `json:"target"`
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

type DashboardSnapshot struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	PaperLive      string `gorm:"not null" json:"paper_live"`
	KillSwitch     bool   `json:"kill_switch"`
	PositionsCount int    `json:"positions_count"`
	OpenOrders     int    `json:"open_orders"`
	DailyPnL       string `gorm:"column:daily_pnl" json:"daily_pnl"` // decimal string, empty when unknown
	SummaryJSON    string `gorm:"type:text" json:"summary_json"`
}
