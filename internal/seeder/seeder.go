package seeder

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/copywriting24/genapi/internal/record"
)

const (
	DevIP    = "127.0.0.1"
	DevBonus = 100
)

// SeedDevOverride grants a local development IP a large quota bonus so
// manual testing is not throttled by the daily limit.
func SeedDevOverride(ctx context.Context, store record.OverrideStore) {
	o := &record.Override{
		IP:    DevIP,
		Bonus: DevBonus,
		Note:  "dev seed",
	}

	if err := store.Upsert(ctx, o); err != nil {
		logrus.WithError(err).Warn("[Seeder] failed to seed dev quota override")
		return
	}
	logrus.WithFields(logrus.Fields{
		"ip":    DevIP,
		"bonus": DevBonus,
	}).Info("[Seeder] dev quota override seeded")
}
