package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/dbx"
	"github.com/tbenoist/harmonia/internal/locale"
	"github.com/tbenoist/harmonia/internal/logging"
	sc "github.com/tbenoist/harmonia/internal/server/config"
	"github.com/tbenoist/harmonia/internal/server/models"
	"github.com/tbenoist/harmonia/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Mailer delivers the regeneration notice. Delivery is an external
// collaborator: best effort, logged, never retried synchronously and never
// able to roll back a version change.
type Mailer interface {
	SendProfileRegenerated(ctx context.Context, userID string, version int) error
}

// ProfileService creates, activates and supersedes holistic profile
// versions. It is the only writer of is_active.
type ProfileService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	config *sc.Config
	logger logging.Logger
	mailer Mailer
}

func NewProfileService(db *sql.DB, repos repomanager.RepositoryManager, config *sc.Config, logger logging.Logger, mailer Mailer) *ProfileService {
	return &ProfileService{
		db:     db,
		repos:  repos,
		config: config,
		logger: logger.With("module", "profile_service"),
		mailer: mailer,
	}
}

// GeneratedProfile pairs the new version with a presigned URL the external
// rendering collaborator uses to upload the rendered document.
type GeneratedProfile struct {
	Profile   *models.HolisticProfile `json:"profile"`
	UploadURL string                  `json:"uploadUrl,omitempty"`
}

// Generate creates the next profile version for a completed session. In one
// transaction it deactivates every prior version and inserts the new one as
// active, so readers never observe zero or multiple active versions.
// Regeneration is indistinguishable from the first generation except that
// the version advances and the user is notified.
func (s *ProfileService) Generate(ctx context.Context, sessionID string) (*GeneratedProfile, error) {
	session, err := s.repos.Sessions(s.db).GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionCompleted {
		return nil, fmt.Errorf("%w: session is %s, profile generation requires COMPLETED", common.ErrInvalidState, session.Status)
	}

	content, err := s.buildContent(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	profile := &models.HolisticProfile{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		UserID:      session.UserID,
		IsActive:    true,
		Content:     content,
		GeneratedAt: now,
		UpdatedAt:   now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Profiles(tx)

		maxVersion, err := repo.MaxVersion(ctx, sessionID)
		if err != nil {
			return err
		}
		profile.Version = maxVersion + 1
		profile.StorageKey = fmt.Sprintf("profiles/%s/%d/%s", sessionID, profile.Version, uuid.New())

		if err := repo.DeactivateAll(ctx, sessionID); err != nil {
			return err
		}
		return repo.Create(ctx, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("error generating profile: %w", err)
	}

	s.logger.Info(ctx, "profile generated", "session_id", sessionID, "version", profile.Version)

	result := &GeneratedProfile{Profile: profile}

	// The version change is committed; everything below is best effort.
	if url, err := s.presignedPutURL(ctx, profile.StorageKey); err != nil {
		s.logger.Warn(ctx, "presign upload url failed", "session_id", sessionID, "error", err.Error())
	} else {
		result.UploadURL = url
	}

	if profile.Version > 1 {
		if err := s.mailer.SendProfileRegenerated(ctx, session.UserID, profile.Version); err != nil {
			s.logger.Warn(ctx, "regeneration notice failed", "session_id", sessionID, "error", err.Error())
		}
	}

	return result, nil
}

// GetActive returns the single active version, or ErrNotFound.
func (s *ProfileService) GetActive(ctx context.Context, sessionID string) (*models.HolisticProfile, error) {
	return s.repos.Profiles(s.db).GetActive(ctx, sessionID)
}

// ListVersions returns every version for a session in version order.
func (s *ProfileService) ListVersions(ctx context.Context, sessionID string) ([]*models.HolisticProfile, error) {
	return s.repos.Profiles(s.db).SelectBySession(ctx, sessionID)
}

// DocumentURL presigns a download of the active version's rendered document.
func (s *ProfileService) DocumentURL(ctx context.Context, sessionID string) (string, error) {
	profile, err := s.repos.Profiles(s.db).GetActive(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.presignedGetURL(ctx, profile.StorageKey)
}

// buildContent snapshots the answer set grouped by bloc. The analysis layer
// that interprets it is an external collaborator.
func (s *ProfileService) buildContent(ctx context.Context, sessionID string) (json.RawMessage, error) {
	answers, err := s.repos.Sessions(s.db).SelectAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.repos.Questions(s.db).SelectAll(ctx)
	if err != nil {
		return nil, err
	}

	blocByNumber := make(map[int]string, len(catalog))
	for _, q := range catalog {
		blocByNumber[q.Number] = q.Bloc.Resolve(locale.Default)
	}

	blocCounts := map[string]int{}
	for _, a := range answers {
		blocCounts[blocByNumber[a.QuestionNumber]]++
	}

	return json.Marshal(map[string]any{
		"answeredQuestions": len(answers),
		"blocs":             blocCounts,
	})
}

func (s *ProfileService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *ProfileService) presignedPutURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *ProfileService) presignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
