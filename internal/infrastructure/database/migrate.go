package database

import (
	"fmt"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAdminUsername 默认管理员用户名
const DefaultAdminUsername = "admin"

// allModels 参与迁移的模型，顺序即建表顺序
func allModels() []interface{} {
	return []interface{}{
		&models.Province{},
		&models.BloodType{},
		&models.User{},
		&models.BloodInventory{},
		&models.HelpOffer{},
		&models.EmergencyRequest{},
		&models.Appointment{},
		&models.DonorNotification{},
		&models.BloodDrive{},
		&models.OperationLog{},
	}
}

// BloodTypeCodes 系统支持的血型编码
var BloodTypeCodes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// DefaultProvinces 印度尼西亚各省（行政区划代码、名称、首府）
var DefaultProvinces = []models.Province{
	{ID: 11, Name: "ACEH", Capital: "Banda Aceh"},
	{ID: 12, Name: "SUMATERA UTARA", Capital: "Medan"},
	{ID: 13, Name: "SUMATERA BARAT", Capital: "Padang"},
	{ID: 14, Name: "RIAU", Capital: "Pekanbaru"},
	{ID: 15, Name: "JAMBI", Capital: "Jambi"},
	{ID: 16, Name: "SUMATERA SELATAN", Capital: "Palembang"},
	{ID: 17, Name: "BENGKULU", Capital: "Bengkulu"},
	{ID: 18, Name: "LAMPUNG", Capital: "Bandar Lampung"},
	{ID: 19, Name: "KEPULAUAN BANGKA BELITUNG", Capital: "Pangkal Pinang"},
	{ID: 21, Name: "KEPULAUAN RIAU", Capital: "Tanjung Pinang"},
	{ID: 31, Name: "DKI JAKARTA", Capital: "Jakarta"},
	{ID: 32, Name: "JAWA BARAT", Capital: "Bandung"},
	{ID: 33, Name: "JAWA TENGAH", Capital: "Semarang"},
	{ID: 34, Name: "DI YOGYAKARTA", Capital: "Yogyakarta"},
	{ID: 35, Name: "JAWA TIMUR", Capital: "Surabaya"},
	{ID: 36, Name: "BANTEN", Capital: "Serang"},
	{ID: 51, Name: "BALI", Capital: "Denpasar"},
	{ID: 52, Name: "NUSA TENGGARA BARAT", Capital: "Mataram"},
	{ID: 53, Name: "NUSA TENGGARA TIMUR", Capital: "Kupang"},
	{ID: 61, Name: "KALIMANTAN BARAT", Capital: "Pontianak"},
	{ID: 62, Name: "KALIMANTAN TENGAH", Capital: "Palangkaraya"},
	{ID: 63, Name: "KALIMANTAN SELATAN", Capital: "Banjarmasin"},
	{ID: 64, Name: "KALIMANTAN TIMUR", Capital: "Samarinda"},
	{ID: 65, Name: "KALIMANTAN UTARA", Capital: "Tanjung Selor"},
	{ID: 71, Name: "SULAWESI UTARA", Capital: "Manado"},
	{ID: 72, Name: "SULAWESI TENGAH", Capital: "Palu"},
	{ID: 73, Name: "SULAWESI SELATAN", Capital: "Makassar"},
	{ID: 74, Name: "SULAWESI TENGGARA", Capital: "Kendari"},
	{ID: 75, Name: "GORONTALO", Capital: "Gorontalo"},
	{ID: 76, Name: "SULAWESI BARAT", Capital: "Mamuju"},
	{ID: 81, Name: "MALUKU", Capital: "Ambon"},
	{ID: 82, Name: "MALUKU UTARA", Capital: "Sofifi"},
	{ID: 91, Name: "PAPUA BARAT", Capital: "Manokwari"},
	{ID: 94, Name: "PAPUA", Capital: "Jayapura"},
}

// Migrate 根据迁移模式执行数据库迁移: "drop" 删除并重建所有表，其余情况只添加新列和新表
func Migrate(db *gorm.DB, mode string) error {
	if mode == "drop" {
		Logger.Warning("在drop模式下运行，将删除并重建所有表")
		if err := dropTables(db); err != nil {
			return err
		}
	}
	return AutoMigrate(db)
}

// AutoMigrate 自动迁移所有模型（只添加新列和新表）
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}
	Logger.Info("数据库迁移完成")
	return nil
}

// dropTables 按建表的逆序删除所有表
func dropTables(db *gorm.DB) error {
	tables := allModels()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			return fmt.Errorf("删除表失败: %w", err)
		}
	}
	return nil
}

// Seed 在表为空时写入省份和血型基础数据
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Province{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		provinces := make([]models.Province, len(DefaultProvinces))
		copy(provinces, DefaultProvinces)
		if err := db.Create(&provinces).Error; err != nil {
			return fmt.Errorf("写入省份数据失败: %w", err)
		}
		Logger.Info("已写入 %d 个省份", len(provinces))
	}

	if err := db.Model(&models.BloodType{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		bloodTypes := make([]models.BloodType, 0, len(BloodTypeCodes))
		for _, code := range BloodTypeCodes {
			bloodTypes = append(bloodTypes, models.BloodType{Type: code})
		}
		if err := db.Create(&bloodTypes).Error; err != nil {
			return fmt.Errorf("写入血型数据失败: %w", err)
		}
		Logger.Info("已写入 %d 种血型", len(bloodTypes))
	}
	return nil
}

// EnsureAdminExists 确保系统中有管理员账户
func EnsureAdminExists(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("生成密码哈希失败: %w", err)
	}

	admin := models.User{
		Username: DefaultAdminUsername,
		Email:    "admin@bloodlink.local",
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		Verified: true,
		Name:     "Administrator",
		Phone:    "",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("创建默认管理员失败: %w", err)
	}

	Logger.Info("已创建默认管理员账户")
	return nil
}
