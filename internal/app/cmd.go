package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandUnlock はロックアウトされたユーザーを解除することを示す。
	CommandUnlock Command = "unlock"
	// CommandPrune はリフレッシュ期限切れのセッションを削除することを示す。
	CommandPrune Command = "prune"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "unlock":
		return CommandUnlock
	case "prune":
		return CommandPrune
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
