package store

import (
	"encoding/json"
	"fmt"
	"log/slog"

	bolt "go.etcd.io/bbolt"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// bucketName はコレクションを格納するbboltバケット名。
var bucketName = []byte("standby")

// BoltStore はbboltファイルを使用したScreenStoreの実装。
// 単一バケットの単一キー配下にコレクション全体をJSON配列として保持する。
// bboltのファイルロックにより、別プロセスからの同時オープンは
// そもそも成立しない（旧実装で許容していたタブ間クロバーは発生しない）。
type BoltStore struct {
	db       *bolt.DB
	logger   *slog.Logger
	recorder FailureRecorder
}

// OpenBolt は指定パスのbboltファイルを開き、BoltStoreを生成する。
// ファイルが存在しない場合は新規作成される。
// recorderがnilの場合はメトリクス記録を行わない。
func OpenBolt(path string, logger *slog.Logger, recorder FailureRecorder) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("ストアファイルのオープンに失敗しました: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("ストアバケットの初期化に失敗しました: %w", err)
	}

	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &BoltStore{db: db, logger: logger, recorder: recorder}, nil
}

// LoadAll は永続化されたコレクション全体を返す。
// キーが存在しない場合やJSONが配列としてパースできない場合は
// 空のスライスに縮退する。パース失敗はログとメトリクスに記録する。
func (s *BoltStore) LoadAll() []model.StandbyScreen {
	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(StorageKey)); v != nil {
			// Viewトランザクション外でも安全に使えるようコピーする
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		s.logger.Error("ストアの読み込みに失敗しました",
			slog.String("error", err.Error()),
		)
		s.recorder.RecordStoreReadFailure()
		return []model.StandbyScreen{}
	}

	if raw == nil {
		return []model.StandbyScreen{}
	}

	var screens []model.StandbyScreen
	if err := json.Unmarshal(raw, &screens); err != nil {
		s.logger.Error("永続化されたコレクションのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		s.recorder.RecordStoreReadFailure()
		return []model.StandbyScreen{}
	}
	if screens == nil {
		return []model.StandbyScreen{}
	}
	return screens
}

// SaveAll はコレクション全体を1トランザクションで上書き保存する。
func (s *BoltStore) SaveAll(screens []model.StandbyScreen) error {
	data, err := json.Marshal(screens)
	if err != nil {
		s.recorder.RecordStoreWriteFailure()
		return fmt.Errorf("コレクションのシリアライズに失敗しました: %w", err)
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return fmt.Errorf("バケットが存在しません: %s", bucketName)
		}
		return b.Put([]byte(StorageKey), data)
	}); err != nil {
		s.recorder.RecordStoreWriteFailure()
		return fmt.Errorf("コレクションの保存に失敗しました: %w", err)
	}
	return nil
}

// Clear は保存済みコレクションを削除する。clearサブコマンドから使用される。
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(StorageKey))
	})
}

// Ping はストアが応答可能であることを確認する。ヘルスチェック用。
func (s *BoltStore) Ping() error {
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

// Close はストアファイルを閉じる。
func (s *BoltStore) Close() error {
	return s.db.Close()
}
