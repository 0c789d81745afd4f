package model

import (
	"strings"
	"time"
)

// 既定の国
const DefaultCountry = "United States"

// 購入者情報。user_idで一意、チェックアウトの度に上書きする。
type Profile struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	FullName   string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email      string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone      string    `gorm:"type:varchar(30);not null" json:"phone"`
	Address    string    `gorm:"type:varchar(255);not null" json:"address"`
	City       string    `gorm:"type:varchar(255);not null" json:"city"`
	PostalCode string    `gorm:"type:varchar(20);not null" json:"postal_code"`
	Country    string    `gorm:"type:varchar(100);not null" json:"country"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// チェックアウトで入力される購入者情報
type CustomerDetails struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// 前後の空白を落とし、国が空なら既定値を入れる
func (d CustomerDetails) Normalize() CustomerDetails {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.Country = strings.TrimSpace(d.Country)
	if d.Country == "" {
		d.Country = DefaultCountry
	}
	return d
}

// 空の必須項目名を返す
func (d CustomerDetails) MissingFields() []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("full_name", d.FullName)
	check("email", d.Email)
	check("phone", d.Phone)
	check("address", d.Address)
	check("city", d.City)
	check("postal_code", d.PostalCode)
	return missing
}

// "address, city, country postal_code"
func (d CustomerDetails) ShippingAddress() string {
	return d.Address + ", " + d.City + ", " + d.Country + " " + d.PostalCode
}

func (d CustomerDetails) ToProfile(userID int64) Profile {
	return Profile{
		UserID:     userID,
		FullName:   d.FullName,
		Email:      d.Email,
		Phone:      d.Phone,
		Address:    d.Address,
		City:       d.City,
		PostalCode: d.PostalCode,
		Country:    d.Country,
	}
}
