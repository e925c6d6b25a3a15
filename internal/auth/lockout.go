package auth

// LockoutThreshold はアカウントをロックするログイン失敗回数。
const LockoutThreshold = 3

// IsLocked はログイン失敗回数がロック閾値に達しているかを返す。
// ロック中はパスワードの正否に関係なく認証できない。
func IsLocked(failedAttempts int) bool {
	return failedAttempts >= LockoutThreshold
}
