package specification

import "gorm.io/gorm"

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type ByProvider struct {
	ProviderName   string
	ProviderUserId string
}

func (s ByProvider) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_name = ? AND provider_user_id = ?", s.ProviderName, s.ProviderUserId)
}

type ByTokenHash struct {
	TokenHash string
}

func (s ByTokenHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("token_hash = ?", s.TokenHash)
}
