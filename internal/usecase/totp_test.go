package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPService_EnableFinishDisable(t *testing.T) {
	userID := uuid.New()
	user := domain.User{ID: userID, Email: "ada@example.com"}
	updating := &fakeUserUpdating{updated: user}

	box, err := cryptox.NewSecretBox(cryptox.DeriveKeyFromSecret("process-secret"))
	require.NoError(t, err)

	svc := NewTOTPService(fakeUserFetching{user: user}, updating, cryptox.NewTOTPService("mycelium"), box, noopAudit{})

	enableResult, mErr := svc.Enable(context.Background(), userID, user.Email)
	require.Nil(t, mErr)
	require.NotEmpty(t, enableResult.SecretPlain)
	require.NotEmpty(t, enableResult.QRPNG)

	code, err := totp.GenerateCode(enableResult.SecretPlain, time.Now())
	require.NoError(t, err)

	mErr = svc.Finish(context.Background(), userID, enableResult.SecretPlain, code)
	require.Nil(t, mErr)
	assert.True(t, updating.lastMFA.Enabled)
	assert.True(t, updating.lastMFA.Verified)
	assert.NotEmpty(t, updating.lastMFA.SecretEnc)

	// Disable requires the user record to reflect the just-persisted MFA state.
	activeUser := user
	activeUser.MFA = updating.lastMFA
	svcWithActiveUser := NewTOTPService(fakeUserFetching{user: activeUser}, updating, cryptox.NewTOTPService("mycelium"), box, noopAudit{})

	disableCode, err := totp.GenerateCode(enableResult.SecretPlain, time.Now())
	require.NoError(t, err)
	mErr = svcWithActiveUser.Disable(context.Background(), userID, disableCode)
	require.Nil(t, mErr)
	assert.False(t, updating.lastMFA.Enabled)
}

func TestTOTPService_Finish_WrongCodeRejected(t *testing.T) {
	userID := uuid.New()
	user := domain.User{ID: userID, Email: "ada@example.com"}
	box, err := cryptox.NewSecretBox(cryptox.DeriveKeyFromSecret("process-secret"))
	require.NoError(t, err)

	svc := NewTOTPService(fakeUserFetching{user: user}, &fakeUserUpdating{updated: user}, cryptox.NewTOTPService("mycelium"), box, noopAudit{})

	enableResult, mErr := svc.Enable(context.Background(), userID, user.Email)
	require.Nil(t, mErr)

	mErr = svc.Finish(context.Background(), userID, enableResult.SecretPlain, "000000")
	require.NotNil(t, mErr)
	assert.Equal(t, domain.CodeTOTPInvalidCode, *mErr.Code)
}
