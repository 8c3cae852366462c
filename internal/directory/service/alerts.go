package service

import (
	"sort"

	"github.com/mquispe/accessdir/internal/directory/types"
)

// Alert categories.
const (
	AlertContract          = "CONTRACT"
	AlertSpecialPermission = "SPECIAL_PERMISSION"
	AlertVPN               = "VPN"
)

// Alert flags one entitlement of an ACTIVE record expiring within the alert
// horizon. Negative DaysRemaining means already expired.
type Alert struct {
	Category      string
	Record        types.AccessRecord
	DaysRemaining int
	ExpiryDate    string
}

// ExpiringAlerts scans every ACTIVE record and emits an alert for each
// entitlement end date within horizonDays of today: the contract end, the
// special-permission end (only while special permissions are enabled), and
// the VPN end (only while VPN is enabled). Empty or unparseable dates
// produce no alert — they are never treated as already-expired. The result
// is sorted ascending by days remaining, soonest (or most overdue) first.
func (s *Service) ExpiringAlerts(horizonDays int) []Alert {
	today := s.now().UTC()

	var alerts []Alert
	emit := func(rec types.AccessRecord, category, expiry string) {
		days, ok := types.DaysRemaining(expiry, today)
		if !ok || days > horizonDays {
			return
		}
		alerts = append(alerts, Alert{
			Category:      category,
			Record:        rec,
			DaysRemaining: days,
			ExpiryDate:    expiry,
		})
	}

	for _, rec := range s.snapshot().list {
		if !rec.Active() {
			continue
		}
		emit(rec, AlertContract, rec.ContractEnd)
		if rec.SpecialPermissionsActive == types.FlagYes {
			emit(rec, AlertSpecialPermission, rec.SpecialPermissionEnd)
		}
		if rec.VPNActive == types.FlagYes {
			emit(rec, AlertVPN, rec.VPNEnd)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})
	return alerts
}
