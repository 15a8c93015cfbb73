package logging

import (
	"github.com/sirupsen/logrus"
	"github.com/warp/compliance-engine/generic"
)

// =============================================================================
// ENGINE OBSERVER - Debug-level diagnostics
// =============================================================================

// Observer logs engine decisions. logrus loggers are safe for concurrent
// use, so one Observer can serve every worker.
type Observer struct {
	log logrus.FieldLogger
}

// NewObserver returns an Observer writing to log, or to Logger when nil.
func NewObserver(log logrus.FieldLogger) *Observer {
	if log == nil {
		log = Logger
	}
	return &Observer{log: log}
}

func (o *Observer) LeaseSelected(unitID, leaseID string, kind string) {
	if leaseID == "" {
		o.log.WithField("unit", unitID).Debug("no governing lease, unit vacant")
		return
	}
	o.log.WithFields(logrus.Fields{
		"unit":  unitID,
		"lease": leaseID,
		"kind":  kind,
	}).Debug("governing lease selected")
}

func (o *Observer) RentAnalysisBypassed(unitID string, reason generic.BypassReason) {
	o.log.WithFields(logrus.Fields{
		"unit":   unitID,
		"reason": string(reason),
	}).Debug("rent analysis bypassed")
}

func (o *Observer) VerificationInherited(unitID, toLeaseID, fromLeaseID string) {
	o.log.WithFields(logrus.Fields{
		"unit": unitID,
		"to":   toLeaseID,
		"from": fromLeaseID,
	}).Debug("verification inherited from sibling lease")
}

func (o *Observer) StatusDerived(unitID, status string, verified, total int) {
	o.log.WithFields(logrus.Fields{
		"unit":     unitID,
		"status":   status,
		"verified": verified,
		"total":    total,
	}).Debug("verification status derived")
}

var _ generic.Observer = (*Observer)(nil)
