package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	"github.com/robinhoot/robinhoot_api/internal/config"
	"github.com/robinhoot/robinhoot_api/internal/models"
)

// ModerationResult is the verdict on a banner image.
type ModerationResult struct {
	Status models.ModerationStatus
	Labels []string
}

// Note returns a human readable summary of the flagged labels.
func (r *ModerationResult) Note() *string {
	if len(r.Labels) == 0 {
		return nil
	}
	note := "flagged: " + strings.Join(r.Labels, ", ")
	return &note
}

// ImageModerator checks stored images for unsafe content.
type ImageModerator interface {
	Moderate(ctx context.Context, imageKey string) (*ModerationResult, error)
}

// moderationAPI is the subset of the Rekognition client used here.
type moderationAPI interface {
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// RekognitionModerator moderates images stored in S3 with AWS Rekognition.
type RekognitionModerator struct {
	client        moderationAPI
	bucket        string
	minConfidence float32
}

// NewImageModerator returns a Rekognition-backed moderator, or a NopModerator
// when AWS credentials are not configured.
func NewImageModerator(ctx context.Context, awsCfg config.AWSConfig, modCfg config.ModerationConfig) (ImageModerator, error) {
	if !awsCfg.Enabled() {
		log.Warn().Msg("AWS credentials not configured - banner moderation disabled")
		return NopModerator{}, nil
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(awsCfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return newRekognitionModerator(rekognition.NewFromConfig(sdkCfg), modCfg), nil
}

func newRekognitionModerator(client moderationAPI, modCfg config.ModerationConfig) *RekognitionModerator {
	return &RekognitionModerator{
		client:        client,
		bucket:        modCfg.Bucket,
		minConfidence: float32(modCfg.MinConfidence),
	}
}

// Moderate rejects the image when any label reaches the confidence threshold.
func (m *RekognitionModerator) Moderate(ctx context.Context, imageKey string) (*ModerationResult, error) {
	out, err := m.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(m.bucket),
				Name:   aws.String(imageKey),
			},
		},
		MinConfidence: aws.Float32(m.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect moderation labels: %w", err)
	}

	seen := map[string]bool{}
	for _, l := range out.ModerationLabels {
		if aws.ToFloat32(l.Confidence) < m.minConfidence {
			continue
		}
		name := aws.ToString(l.Name)
		if parent := aws.ToString(l.ParentName); parent != "" {
			name = parent + "/" + name
		}
		seen[name] = true
	}

	labels := make([]string, 0, len(seen))
	for name := range seen {
		labels = append(labels, name)
	}
	sort.Strings(labels)

	if len(labels) > 0 {
		return &ModerationResult{Status: models.ModerationRejected, Labels: labels}, nil
	}
	return &ModerationResult{Status: models.ModerationApproved}, nil
}

// NopModerator approves every image.
type NopModerator struct{}

func (NopModerator) Moderate(context.Context, string) (*ModerationResult, error) {
	return &ModerationResult{Status: models.ModerationApproved}, nil
}
