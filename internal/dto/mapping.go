package dto

type SuggestMappingsRequest struct {
	CertificationID string `json:"certification_id"`
	Kind            string `json:"kind"` // video or document
}

type MappingSuggestionResponse struct {
	ObjectiveID         string  `json:"objective_id,omitempty"`
	BulletID            string  `json:"bullet_id,omitempty"`
	SubBulletID         string  `json:"sub_bullet_id,omitempty"`
	Confidence          float64 `json:"confidence"`
	IsPrimarySuggestion bool    `json:"is_primary_suggestion"`
	Reason              string  `json:"reason,omitempty"`
	DomainName          string  `json:"domain_name,omitempty"`
	ObjectiveCode       string  `json:"objective_code,omitempty"`
	ObjectiveText       string  `json:"objective_text,omitempty"`
	BulletText          string  `json:"bullet_text,omitempty"`
	SubBulletText       string  `json:"sub_bullet_text,omitempty"`
}

type ApplyMappingEntry struct {
	ObjectiveID *string `json:"objective_id,omitempty"`
	BulletID    *string `json:"bullet_id,omitempty"`
	SubBulletID *string `json:"sub_bullet_id,omitempty"`
	Confidence  float64 `json:"confidence"`
	IsPrimary   bool    `json:"is_primary"`
}

type ApplyMappingsRequest struct {
	Mappings []ApplyMappingEntry `json:"mappings"`
}

type ApplyMappingsResponse struct {
	Applied int `json:"applied"`
}

type ManualMappingRequest struct {
	ObjectiveID *string `json:"objective_id,omitempty"`
	BulletID    *string `json:"bullet_id,omitempty"`
	SubBulletID *string `json:"sub_bullet_id,omitempty"`
	IsPrimary   bool    `json:"is_primary"`
}

type ManualMappingResponse struct {
	ID string `json:"id"`
}

type MappingResponse struct {
	ID          string  `json:"id"`
	ContentID   string  `json:"content_id"`
	ObjectiveID string  `json:"objective_id,omitempty"`
	BulletID    string  `json:"bullet_id,omitempty"`
	SubBulletID string  `json:"sub_bullet_id,omitempty"`
	IsPrimary   bool    `json:"is_primary"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
	CreatedAt   string  `json:"created_at"`
}

type MappingSummaryResponse struct {
	TotalMappings int               `json:"total_mappings"`
	Primary       *MappingResponse  `json:"primary,omitempty"`
	Others        []MappingResponse `json:"others"`
}
