package entity

// ImageAsset is the image metadata row under IMAGE#<id> / METADATA, with a
// category projection on GSI2 and a status projection on GSI3.
type ImageAsset struct {
	Base

	ImageID      string           `dynamodbav:"imageId" json:"imageId"`
	URL          string           `dynamodbav:"url" json:"url"`
	ThumbnailURL string           `dynamodbav:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	AltText      string           `dynamodbav:"altText" json:"altText"`
	Category     string           `dynamodbav:"category" json:"category"`
	Tags         []string         `dynamodbav:"tags,omitempty" json:"tags,omitempty"`
	Source       string           `dynamodbav:"source" json:"source"`
	SourceInfo   *ImageSourceInfo `dynamodbav:"sourceInfo,omitempty" json:"sourceInfo,omitempty"`
	Dimensions   ImageDimensions  `dynamodbav:"dimensions" json:"dimensions"`
	FileSize     int64            `dynamodbav:"fileSize" json:"fileSize"`
	Format       string           `dynamodbav:"format" json:"format"`
	Status       string           `dynamodbav:"status" json:"status"`
	Validation   *ImageValidation `dynamodbav:"validation,omitempty" json:"validation,omitempty"`
	Usage        ImageUsage       `dynamodbav:"usage" json:"usage"`
}

type ImageSourceInfo struct {
	Provider    string `dynamodbav:"provider,omitempty" json:"provider,omitempty"`
	LicenseType string `dynamodbav:"licenseType,omitempty" json:"licenseType,omitempty"`
	Attribution string `dynamodbav:"attribution,omitempty" json:"attribution,omitempty"`
}

type ImageDimensions struct {
	Width  int `dynamodbav:"width" json:"width"`
	Height int `dynamodbav:"height" json:"height"`
}

// ImageValidation holds the scores produced during content review. Scores
// are normalized to [0, 1].
type ImageValidation struct {
	CulturalRelevanceScore float64 `dynamodbav:"culturalRelevanceScore" json:"culturalRelevanceScore"`
	SensitivityScore       float64 `dynamodbav:"sensitivityScore" json:"sensitivityScore"`
	InclusivityScore       float64 `dynamodbav:"inclusivityScore" json:"inclusivityScore"`
	IsAppropriate          bool    `dynamodbav:"isAppropriate" json:"isAppropriate"`
	ValidatedBy            string  `dynamodbav:"validatedBy,omitempty" json:"validatedBy,omitempty"`
	ValidatedAt            string  `dynamodbav:"validatedAt,omitempty" json:"validatedAt,omitempty"`

	// Issues accumulates reviewer notes across status changes.
	Issues []string `dynamodbav:"issues,omitempty" json:"issues,omitempty"`
}

type ImageUsage struct {
	TimesUsed int      `dynamodbav:"timesUsed" json:"timesUsed"`
	Contexts  []string `dynamodbav:"contexts,omitempty" json:"contexts,omitempty"`
	LastUsed  string   `dynamodbav:"lastUsed,omitempty" json:"lastUsed,omitempty"`
}
