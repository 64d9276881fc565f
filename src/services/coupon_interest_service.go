package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/model"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/security/validation"
)

func (s *buySellServiceImpl) ListCouponInterests(ctx context.Context, isinID string) ([]models.CouponInterest, error) {
	isin, err := s.LoadIsinData(ctx, isinID)
	if err != nil {
		return nil, err
	}
	if isin.CouponInterests == nil {
		return []models.CouponInterest{}, nil
	}
	return isin.CouponInterests, nil
}

func (s *buySellServiceImpl) AddCouponInterest(ctx context.Context, isinID string, in CouponInterestInput) (models.CouponInterest, error) {
	if _, err := model.GetIsinByID(ctx, s.db, isinID); err != nil {
		return models.CouponInterest{}, storeErr(err, "isin", isinID)
	}
	if err := validation.ValidateNonNegative(in.InterestRate, "interest_rate"); err != nil {
		return models.CouponInterest{}, invalid(err)
	}
	if err := validation.ValidateNonNegative(in.CouponRate, "coupon_rate"); err != nil {
		return models.CouponInterest{}, invalid(err)
	}

	ci := models.CouponInterest{
		ID:           uuid.New().String(),
		IsinID:       isinID,
		InterestRate: in.InterestRate,
		CouponRate:   in.CouponRate,
		Status:       in.Status,
		Type:         in.Type,
	}
	if in.EventDate != nil && *in.EventDate != "" {
		d, err := validation.ValidateDateString(*in.EventDate, "event_date")
		if err != nil {
			return models.CouponInterest{}, invalid(err)
		}
		formatted := d.Format(bondcalc.DateLayout)
		ci.EventDate = &formatted
	}
	if ci.Status == 0 {
		ci.Status = int(bondcalc.StatusCurrent)
	}
	if ci.Type == 0 {
		ci.Type = models.CouponInterestFixed
	}
	if ci.Status != int(bondcalc.StatusCurrent) && ci.Status != int(bondcalc.StatusHistorical) {
		return models.CouponInterest{}, fmt.Errorf("%w: status must be 1 (current) or 2 (historical), got %d", ErrValidation, ci.Status)
	}
	if ci.Type != models.CouponInterestFixed && ci.Type != models.CouponInterestFloating {
		return models.CouponInterest{}, fmt.Errorf("%w: type must be 1 (fixed) or 2 (floating), got %d", ErrValidation, ci.Type)
	}

	if err := model.InsertCouponInterest(ctx, s.db, &ci); err != nil {
		return models.CouponInterest{}, err
	}
	s.InvalidateIsin(ctx, isinID)
	logger.FromContext(ctx).Info("Coupon interest added", "couponInterestID", ci.ID, "isinID", isinID, "interestRate", ci.InterestRate)
	return ci, nil
}

// updateCouponInterest runs update against one record and drops the cached
// data of the ISIN it belongs to.
func (s *buySellServiceImpl) updateCouponInterest(ctx context.Context, id string, update func() error) error {
	ci, err := model.GetCouponInterest(ctx, s.db, id)
	if err != nil {
		return storeErr(err, "coupon interest", id)
	}
	if err := update(); err != nil {
		return storeErr(err, "coupon interest", id)
	}
	s.InvalidateIsin(ctx, ci.IsinID)
	return nil
}

func (s *buySellServiceImpl) UpdateInterestRate(ctx context.Context, id string, rate float64) error {
	if err := validation.ValidateNonNegative(rate, "interest_rate"); err != nil {
		return invalid(err)
	}
	err := s.updateCouponInterest(ctx, id, func() error {
		return model.UpdateInterestRate(ctx, s.db, id, rate)
	})
	if err == nil {
		logger.FromContext(ctx).Info("Interest rate updated", "couponInterestID", id, "interestRate", rate)
	}
	return err
}

func (s *buySellServiceImpl) UpdateCouponRate(ctx context.Context, id string, rate float64) error {
	if err := validation.ValidateNonNegative(rate, "coupon_rate"); err != nil {
		return invalid(err)
	}
	err := s.updateCouponInterest(ctx, id, func() error {
		return model.UpdateCouponRate(ctx, s.db, id, rate)
	})
	if err == nil {
		logger.FromContext(ctx).Info("Coupon rate updated", "couponInterestID", id, "couponRate", rate)
	}
	return err
}

func (s *buySellServiceImpl) DeleteCouponInterest(ctx context.Context, id string) error {
	err := s.updateCouponInterest(ctx, id, func() error {
		return model.DeleteCouponInterest(ctx, s.db, id)
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	logger.FromContext(ctx).Info("Coupon interest deleted", "couponInterestID", id)
	return nil
}
