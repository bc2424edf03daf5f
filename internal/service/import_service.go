package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/where2dive/internal/db"
	"gorm.io/gorm"
)

// ErrAlreadyImported 用户已经导入过旧版本地数据
var ErrAlreadyImported = errors.New("legacy data already imported")

// LegacyPayload 为旧版客户端本地存储中的数据
type LegacyPayload struct {
	Favorites []uint
	Logbook   []DiveLogInput
	MySpots   []PersonalSpotInput
}

// ImportResult 统计导入与跳过的条目
type ImportResult struct {
	Favorites int `json:"favorites"`
	Logs      int `json:"logs"`
	MySpots   int `json:"myspots"`
	Skipped   int `json:"skipped"`
}

// ImportService 将旧版本地数据一次性写入账号
type ImportService struct {
	db        *gorm.DB
	logs      *DiveLogService
	favorites *FavoriteService
	now       func() time.Time
}

// NewImportService 构造 ImportService
func NewImportService(gdb *gorm.DB, logs *DiveLogService, favorites *FavoriteService) *ImportService {
	return &ImportService{db: gdb, logs: logs, favorites: favorites, now: time.Now}
}

// Import 在单个事务中写入全部数据并标记用户已导入。
// 无法解析的条目被跳过，不影响其他条目。
func (s *ImportService) Import(userID uint, payload LegacyPayload) (ImportResult, error) {
	var result ImportResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.Select("id", "legacy_imported_at").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}
		if user.LegacyImportedAt != nil {
			return ErrAlreadyImported
		}

		for _, spotID := range payload.Favorites {
			var count int64
			if err := tx.Model(&db.DiveSpot{}).Where("id = ?", spotID).Count(&count).Error; err != nil {
				return fmt.Errorf("find spot: %w", err)
			}
			if count == 0 {
				result.Skipped++
				continue
			}
			if err := s.favorites.add(tx, userID, spotID); err != nil {
				return err
			}
			result.Favorites++
		}

		for _, input := range payload.Logbook {
			entry := db.DiveLog{UserID: userID}
			if err := s.logs.apply(tx, &entry, input); err != nil {
				result.Skipped++
				continue
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("import dive log: %w", err)
			}
			result.Logs++
		}

		for _, input := range payload.MySpots {
			spot := db.PersonalSpot{UserID: userID}
			if err := applyPersonalSpot(&spot, input); err != nil {
				result.Skipped++
				continue
			}
			if err := tx.Create(&spot).Error; err != nil {
				return fmt.Errorf("import personal spot: %w", err)
			}
			result.MySpots++
		}

		return tx.Model(&db.User{}).Where("id = ?", userID).Update("legacy_imported_at", s.now()).Error
	})
	if err != nil {
		return ImportResult{}, err
	}

	log.Printf("[import] user %d: %d favorites, %d logs, %d spots, %d skipped",
		userID, result.Favorites, result.Logs, result.MySpots, result.Skipped)
	return result, nil
}
