package models

import (
	"fmt"
	"math"
	"time"
)

// ImminentExpiryLabel метка для срока годности, истекающего сегодня или уже истекшего
const ImminentExpiryLabel = "besok"

// ExpiryDays считает ceil((полночь даты по UTC - now) / сутки)
func ExpiryDays(expiry Date, now time.Time) int {
	diff := expiry.Time().Sub(now)
	return int(math.Ceil(float64(diff) / float64(24*time.Hour)))
}

// ExpiryLabel текст для отображения. Ноль и отрицательные значения
// показываются одинаково, отдельного состояния "просрочено" в метке нет.
func ExpiryLabel(days int) string {
	if days <= 0 {
		return ImminentExpiryLabel
	}
	return fmt.Sprintf("%d hari lagi", days)
}

// IsExpired сообщает, что дата строго раньше сегодняшней (по UTC)
func IsExpired(expiry Date, now time.Time) bool {
	return expiry.Before(DateOf(now.UTC()))
}

// ExpiryInfo производные поля срока годности для отображения
type ExpiryInfo struct {
	Days    *int   `json:"expiry_days"`
	Label   string `json:"expiry_label,omitempty"`
	Expired bool   `json:"expired"`
}

// DescribeExpiry возвращает пустой ExpiryInfo для записей без срока годности
func DescribeExpiry(r InventoryRecord, now time.Time) ExpiryInfo {
	if r.ExpiryDate == nil {
		return ExpiryInfo{}
	}
	days := ExpiryDays(*r.ExpiryDate, now)
	return ExpiryInfo{
		Days:    &days,
		Label:   ExpiryLabel(days),
		Expired: IsExpired(*r.ExpiryDate, now),
	}
}
