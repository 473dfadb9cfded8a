package handler

import (
	"time"

	"github.com/hitoshi/collabo/internal/model"
)

// userResponse はAPIレスポンスにおけるユーザー表現。
// パスワードハッシュは含めない。
type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		Name:      user.Name,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
	}
}

// profileResponse はAPIレスポンスにおけるプロフィール表現。
// 種別に応じて無関係のフィールドは省略される。
type profileResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Kind      string    `json:"kind"`
	Location  string    `json:"location"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`

	// インフルエンサー向けフィールド
	Category       string   `json:"category,omitempty"`
	Platforms      []string `json:"platforms,omitempty"`
	FollowerCount  int      `json:"followerCount,omitempty"`
	EngagementRate string   `json:"engagementRate,omitempty"`
	Pricing        string   `json:"pricing,omitempty"`
	ContentSamples []string `json:"contentSamples,omitempty"`

	// ブランド向けフィールド
	CompanyType    string `json:"companyType,omitempty"`
	Industry       string `json:"industry,omitempty"`
	MarketingGoals string `json:"marketingGoals,omitempty"`
	Budget         string `json:"budget,omitempty"`
}

// toProfileResponse はmodel.ProfileからAPIレスポンスに変換する。
func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Kind:           string(p.Kind),
		Location:       p.Location,
		Verified:       p.Verified,
		CreatedAt:      p.CreatedAt,
		Category:       p.Category,
		Platforms:      p.Platforms,
		FollowerCount:  p.FollowerCount,
		EngagementRate: p.EngagementRate,
		Pricing:        p.Pricing,
		ContentSamples: p.ContentSamples,
		CompanyType:    p.CompanyType,
		Industry:       p.Industry,
		MarketingGoals: p.MarketingGoals,
		Budget:         p.Budget,
	}
}

// toProfileResponses はプロフィールのスライスをAPIレスポンスに変換する。
func toProfileResponses(profiles []*model.Profile) []profileResponse {
	responses := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		responses = append(responses, toProfileResponse(p))
	}
	return responses
}

// messageResponse はAPIレスポンスにおけるメッセージ表現。
type messageResponse struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"senderId"`
	RecipientID int64     `json:"recipientId"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// toMessageResponse はmodel.MessageからAPIレスポンスに変換する。
func toMessageResponse(m *model.Message) messageResponse {
	return messageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
	}
}

// toMessageResponses はメッセージのスライスをAPIレスポンスに変換する。
func toMessageResponses(messages []*model.Message) []messageResponse {
	responses := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, toMessageResponse(m))
	}
	return responses
}
