package cmd

import (
	"fmt"
	"log"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	machineDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/machine"
	sectionDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/section"
	userDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/user"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "password"

var seedCatalog = []struct {
	Section  string
	Machines []string
}{
	{"Molienda", []string{"Molino A", "Molino B"}},
	{"Envasado", []string{"Envasadora 1", "Selladora"}},
	{"Calderas", []string{"Caldero Principal"}},
}

var seedUsers = []struct {
	Name, Surname, Code, Username string
}{
	{"Ana", "Rojas", "IBJ00001", "arojas"},
	{"Luis", "Paz", "IBE00002", "lpaz"},
	{"Juan", "Quispe", "IBT00007", "jquispe"},
	{"Pedro", "Huaman", "IBT00008", "phuaman"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed sections, machines and one user per role for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := openGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearSeedData(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared faults, machines, sections and users")
		}

		if err := seedSections(db); err != nil {
			log.Fatalf("failed to seed catalog: %v", err)
		}

		cost := cfg.Security.BCryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}
		if err := seedAccounts(db, string(hash)); err != nil {
			log.Fatalf("failed to seed users: %v", err)
		}

		fmt.Println("Seed finished; every seeded user logs in with password:", seedPassword)
	},
}

func clearSeedData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"faults", "machines", "sections", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func seedSections(db *gorm.DB) error {
	for _, s := range seedCatalog {
		sec := sectionDatamodel.Section{Name: s.Section}
		if err := db.Where("name = ?", s.Section).FirstOrCreate(&sec).Error; err != nil {
			return fmt.Errorf("section %s: %w", s.Section, err)
		}
		for _, name := range s.Machines {
			m := machineDatamodel.Machine{Name: name, SectionID: sec.ID}
			if err := db.Where("name = ? AND section_id = ?", name, sec.ID).FirstOrCreate(&m).Error; err != nil {
				return fmt.Errorf("machine %s: %w", name, err)
			}
		}
		fmt.Printf("Seeded section %s with %d machines\n", s.Section, len(s.Machines))
	}
	return nil
}

func seedAccounts(db *gorm.DB, hash string) error {
	for _, u := range seedUsers {
		role, err := actor.RoleFromEmployeeCode(u.Code)
		if err != nil {
			return err
		}
		row := userDatamodel.User{
			Name:         u.Name,
			Surname:      u.Surname,
			EmployeeCode: u.Code,
			Username:     u.Username,
			PasswordHash: hash,
			Role:         string(role),
		}
		res := db.Where("username = ?", u.Username).FirstOrCreate(&row)
		if res.Error != nil {
			return fmt.Errorf("user %s: %w", u.Username, res.Error)
		}
		if res.RowsAffected == 0 {
			fmt.Printf("User %s already exists\n", u.Username)
			continue
		}
		fmt.Printf("Seeded %s user: %s\n", role, u.Username)
	}
	return nil
}
