package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
)

// BackupKeyPrefix is the object key prefix of uploaded snapshots
const BackupKeyPrefix = "backups/"

// BackupError represents a backup or restore failure
type BackupError struct {
	Code    string
	Message string
}

func (e *BackupError) Error() string {
	return e.Message
}

// ErrBackupDisabled is returned by Backup and Restore when no backup store is configured
var ErrBackupDisabled = &BackupError{Code: "BACKUP_DISABLED", Message: "backup storage is not configured"}

// DataExport is a snapshot of every collection
type DataExport struct {
	Orders     []*models.Order `json:"orders"`
	Staff      []models.Staff  `json:"staff"`
	Settings   models.Settings `json:"settings"`
	ExportDate time.Time       `json:"exportDate"`
}

// DataImport replaces the collections that are present; nil collections are left alone
type DataImport struct {
	Orders   []*models.Order  `json:"orders"`
	Staff    []models.Staff   `json:"staff"`
	Settings *models.Settings `json:"settings"`
}

// StorageStats summarizes the stored data
type StorageStats struct {
	TotalOrders   int         `json:"totalOrders"`
	PendingOrders int         `json:"pendingOrders"`
	SignedOrders  int         `json:"signedOrders"`
	TotalStaff    int         `json:"totalStaff"`
	StorageUsed   store.Usage `json:"storageUsed"`
}

// BackupResult identifies an uploaded snapshot
type BackupResult struct {
	Key         string `json:"key"`
	DownloadURL string `json:"downloadUrl"`
	TotalOrders int    `json:"totalOrders"`
}

// DataService exports, imports, clears and backs up every collection at once
type DataService struct {
	store    store.Store
	orders   *repositories.OrderRepository
	staff    *repositories.StaffRepository
	settings *repositories.SettingsStore
	photos   *PhotoService
	backups  BackupStore
	now      func() time.Time
	logger   zerolog.Logger
}

// NewDataService creates a data service. backups may be nil, which disables
// Backup and Restore.
func NewDataService(
	s store.Store,
	orders *repositories.OrderRepository,
	staff *repositories.StaffRepository,
	settings *repositories.SettingsStore,
	backups BackupStore,
	now func() time.Time,
	logger zerolog.Logger,
) *DataService {
	if now == nil {
		now = time.Now
	}
	return &DataService{
		store:    s,
		orders:   orders,
		staff:    staff,
		settings: settings,
		photos:   NewPhotoService(now),
		backups:  backups,
		now:      now,
		logger:   logger.With().Str("component", "data_service").Logger(),
	}
}

// ExportData returns every collection with the export time
func (s *DataService) ExportData() (*DataExport, error) {
	orders, err := s.orders.All()
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.List()
	if err != nil {
		return nil, err
	}

	return &DataExport{
		Orders:     orders,
		Staff:      staff,
		Settings:   s.settings.Get(),
		ExportDate: s.now().UTC().Truncate(time.Millisecond),
	}, nil
}

// ImportData overwrites each collection present in data. Every collection is
// checked before anything is written, and a failed write restores the keys to
// what they held before the import.
func (s *DataService) ImportData(data DataImport) error {
	prepared, err := s.prepareImport(data)
	if err != nil {
		return err
	}

	before, err := s.snapshotKeys(store.OrdersKey, store.StaffKey, store.SettingsKey)
	if err != nil {
		return fmt.Errorf("failed to read current data: %w", err)
	}
	if err := s.writeImport(prepared); err != nil {
		s.restoreKeys(before)
		return err
	}

	s.logger.Info().
		Int("orders", len(prepared.Orders)).
		Int("staff", len(prepared.Staff)).
		Bool("settings", prepared.Settings != nil).
		Msg("data imported")
	return nil
}

// prepareImport returns normalized copies of the collections in data, or a
// ValidationError listing every problem found
func (s *DataService) prepareImport(data DataImport) (DataImport, error) {
	prepared := DataImport{Settings: data.Settings}
	var errs []string

	if data.Orders != nil {
		prepared.Orders = make([]*models.Order, 0, len(data.Orders))
		numbers := make(map[string]bool, len(data.Orders))
		for i, in := range data.Orders {
			if in == nil {
				errs = append(errs, fmt.Sprintf("第 %d 筆維修單沒有資料", i+1))
				continue
			}
			order := *in

			photos, err := s.photos.Verify(order.Photos)
			if err != nil {
				errs = append(errs, fmt.Sprintf("維修單 %s 的照片不正確: %v", order.OrderNumber, err))
			}
			order.Photos = photos
			order.Normalize()

			switch {
			case strings.TrimSpace(order.OrderNumber) == "":
				errs = append(errs, fmt.Sprintf("第 %d 筆維修單缺少單號", i+1))
			case numbers[order.OrderNumber]:
				errs = append(errs, fmt.Sprintf("維修單號 %s 重複", order.OrderNumber))
			}
			numbers[order.OrderNumber] = true

			signed := order.Status == models.StatusSigned
			if !signed && order.Status != models.StatusPending {
				errs = append(errs, fmt.Sprintf("維修單 %s 的狀態 %q 不正確", order.OrderNumber, order.Status))
			} else if signed != (order.Signature != nil) || signed != (order.SignedAt != nil) {
				errs = append(errs, fmt.Sprintf("維修單 %s 的簽名資料與狀態不一致", order.OrderNumber))
			}

			prepared.Orders = append(prepared.Orders, &order)
		}
	}

	if data.Staff != nil {
		prepared.Staff = make([]models.Staff, 0, len(data.Staff))
		names := make(map[string]bool, len(data.Staff))
		for i, member := range data.Staff {
			member.Name = strings.TrimSpace(member.Name)
			switch {
			case member.Name == "":
				errs = append(errs, fmt.Sprintf("第 %d 位工務人員缺少姓名", i+1))
			case names[member.Name]:
				errs = append(errs, fmt.Sprintf("工務人員 %s 重複", member.Name))
			}
			names[member.Name] = true
			prepared.Staff = append(prepared.Staff, member)
		}
	}

	if len(errs) > 0 {
		return DataImport{}, &models.ValidationError{Errors: errs}
	}
	return prepared, nil
}

func (s *DataService) writeImport(data DataImport) error {
	if data.Orders != nil {
		if err := s.orders.ReplaceAll(data.Orders); err != nil {
			return fmt.Errorf("failed to import orders: %w", err)
		}
	}
	if data.Staff != nil {
		if err := s.staff.ReplaceAll(data.Staff); err != nil {
			return fmt.Errorf("failed to import staff: %w", err)
		}
	}
	if data.Settings != nil {
		if err := s.settings.Replace(*data.Settings); err != nil {
			return fmt.Errorf("failed to import settings: %w", err)
		}
	}
	return nil
}

type storedValue struct {
	key     string
	value   string
	present bool
}

func (s *DataService) snapshotKeys(keys ...string) ([]storedValue, error) {
	values := make([]storedValue, 0, len(keys))
	for _, key := range keys {
		value, ok, err := s.store.Get(key)
		if err != nil {
			return nil, err
		}
		values = append(values, storedValue{key: key, value: value, present: ok})
	}
	return values, nil
}

// restoreKeys puts back the values read by snapshotKeys
func (s *DataService) restoreKeys(values []storedValue) {
	for _, v := range values {
		var err error
		if v.present {
			err = s.store.Set(v.key, v.value)
		} else {
			err = s.store.Remove(v.key)
		}
		if err != nil {
			s.logger.Error().Err(err).Str("key", v.key).Msg("failed to roll back import")
		}
	}
}

// ClearAllData removes the orders, staff and settings keys
func (s *DataService) ClearAllData() error {
	if err := s.orders.Clear(); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}
	if err := s.staff.Clear(); err != nil {
		return fmt.Errorf("failed to clear staff: %w", err)
	}
	if err := s.settings.Clear(); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}

	s.logger.Warn().Msg("all data cleared")
	return nil
}

// StorageStats counts orders by status and staff, with the store usage
func (s *DataService) StorageStats() (*StorageStats, error) {
	orders, err := s.orders.All()
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.List()
	if err != nil {
		return nil, err
	}
	usage, err := s.store.Usage()
	if err != nil {
		return nil, err
	}

	stats := &StorageStats{
		TotalOrders: len(orders),
		TotalStaff:  len(staff),
		StorageUsed: usage,
	}
	for _, o := range orders {
		switch o.Status {
		case models.StatusPending:
			stats.PendingOrders++
		case models.StatusSigned:
			stats.SignedOrders++
		}
	}
	return stats, nil
}

// BackupKey returns the object key of a snapshot taken at t
func BackupKey(t time.Time) string {
	return fmt.Sprintf("%smaintenance_orders_backup_%s.json", BackupKeyPrefix, t.UTC().Format("20060102T150405Z"))
}

// Backup uploads the current export snapshot and returns a download URL for it
func (s *DataService) Backup(ctx context.Context) (*BackupResult, error) {
	if s.backups == nil {
		return nil, ErrBackupDisabled
	}

	export, err := s.ExportData()
	if err != nil {
		return nil, err
	}
	payload, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	key := BackupKey(export.ExportDate)
	if err := s.backups.Upload(ctx, key, payload); err != nil {
		return nil, err
	}

	url, err := s.backups.GetPresignedURL(ctx, key)
	if err != nil {
		// The snapshot is stored; only the link is missing
		s.logger.Error().Err(err).Str("key", key).Msg("failed to presign backup URL")
		url = ""
	}

	s.logger.Info().Str("key", key).Int("orders", len(export.Orders)).Msg("backup uploaded")
	return &BackupResult{Key: key, DownloadURL: url, TotalOrders: len(export.Orders)}, nil
}

// Restore downloads the snapshot stored under key and imports it
func (s *DataService) Restore(ctx context.Context, key string) (*DataExport, error) {
	if s.backups == nil {
		return nil, ErrBackupDisabled
	}
	if key == "" {
		return nil, &models.ValidationError{Errors: []string{"請提供備份檔案名稱"}}
	}

	payload, err := s.backups.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	var snapshot DataImport
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, &models.ValidationError{Errors: []string{fmt.Sprintf("備份檔案格式不正確: %v", err)}}
	}
	if snapshot.Orders == nil && snapshot.Staff == nil && snapshot.Settings == nil {
		return nil, &models.ValidationError{Errors: []string{"備份檔案沒有可匯入的資料"}}
	}
	if err := s.ImportData(snapshot); err != nil {
		return nil, err
	}

	s.logger.Info().Str("key", key).Msg("backup restored")
	return s.ExportData()
}

// IsBackupDisabled reports whether err means backups are not configured
func IsBackupDisabled(err error) bool {
	return errors.Is(err, ErrBackupDisabled)
}
