package cmd

import (
	"errors"
	"log"

	"github.com/fatih/color"
	"github.com/frahmantamala/separation-management/internal/auth"
	departmentDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/department"
	templateDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/template"
	userDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/user"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const seedPassword = "password123"

var (
	seedOK   = color.New(color.FgGreen).SprintFunc()
	seedSkip = color.New(color.FgYellow).SprintFunc()
	seedHead = color.New(color.FgCyan, color.Bold).SprintFunc()
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed departments, one user per role and the default checklist templates for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
			}
			depts, err := seedDepartments(tx)
			if err != nil {
				return err
			}
			if err := seedUsers(tx, depts, hash); err != nil {
				return err
			}
			return seedTemplates(tx, depts)
		}); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}

		color.Green("Seeding complete. Every seeded user signs in with %q.", seedPassword)
	},
}

func clearSeedData(tx *gorm.DB) error {
	color.Red("Clearing existing data")
	for _, table := range []string{
		"notifications", "handover_schedules", "signoffs", "checklist_items", "separation_cases",
		"checklist_template_items", "checklist_templates", "users", "departments",
	} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedDepartments(tx *gorm.DB) (map[string]*departmentDatamodel.Department, error) {
	log.Println(seedHead("Departments"))

	seeds := []departmentDatamodel.Department{
		{Code: "HR", Name: "Human Resources", Description: "People operations and offboarding"},
		{Code: "ENG", Name: "Engineering", Description: "Product engineering"},
		{Code: "IT", Name: "IT", Description: "Equipment and access management"},
		{Code: "FIN", Name: "Finance", Description: "Payroll and final settlement"},
		{Code: "OPS", Name: "Operations", Description: "Facilities and office operations"},
	}

	out := make(map[string]*departmentDatamodel.Department, len(seeds))
	for i := range seeds {
		d := seeds[i]
		var existing departmentDatamodel.Department
		err := tx.Where("code = ?", d.Code).First(&existing).Error
		switch {
		case err == nil:
			log.Printf("%s department %s", seedSkip("exists"), d.Code)
			out[d.Code] = &existing
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
		if err := tx.Create(&d).Error; err != nil {
			return nil, err
		}
		log.Printf("%s department %s", seedOK("created"), d.Code)
		out[d.Code] = &d
	}
	return out, nil
}

func seedUsers(tx *gorm.DB, depts map[string]*departmentDatamodel.Department, hash string) error {
	log.Println(seedHead("Users"))

	upsert := func(u *userDatamodel.User) (*userDatamodel.User, error) {
		var existing userDatamodel.User
		err := tx.Where("email = ?", u.Email).First(&existing).Error
		if err == nil {
			log.Printf("%s user %s", seedSkip("exists"), u.Email)
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		u.PasswordHash = hash
		u.IsActive = true
		if err := tx.Create(u).Error; err != nil {
			return nil, err
		}
		log.Printf("%s user %s (%s)", seedOK("created"), u.Email, u.Role)
		return u, nil
	}

	hr, err := upsert(&userDatamodel.User{
		Email: "hr@example.com", Name: "Hana Rahman", Role: string(auth.RoleSeparationManager),
		DepartmentID: &depts["HR"].ID, Position: "HR Business Partner", EmployeeNumber: "EMP-0001",
	})
	if err != nil {
		return err
	}
	lead, err := upsert(&userDatamodel.User{
		Email: "lead@example.com", Name: "Dimas Pratama", Role: string(auth.RoleDirectManager),
		DepartmentID: &depts["ENG"].ID, ManagerID: &hr.ID, Position: "Engineering Lead", EmployeeNumber: "EMP-0002",
	})
	if err != nil {
		return err
	}
	if _, err := upsert(&userDatamodel.User{
		Email: "finance@example.com", Name: "Sari Wijaya", Role: string(auth.RoleDepartmentManager),
		DepartmentID: &depts["FIN"].ID, Position: "Finance Manager", EmployeeNumber: "EMP-0003",
	}); err != nil {
		return err
	}
	if _, err := upsert(&userDatamodel.User{
		Email: "it@example.com", Name: "Budi Santoso", Role: string(auth.RoleDepartmentManager),
		DepartmentID: &depts["IT"].ID, Position: "IT Manager", EmployeeNumber: "EMP-0004",
	}); err != nil {
		return err
	}
	_, err = upsert(&userDatamodel.User{
		Email: "employee@example.com", Name: "Rina Kusuma", Role: string(auth.RoleEmployee),
		DepartmentID: &depts["ENG"].ID, ManagerID: &lead.ID, Position: "Software Engineer", EmployeeNumber: "EMP-0005",
	})
	return err
}

type templateSeed struct {
	name       string
	department string
	items      []templateDatamodel.ChecklistTemplateItem
}

func seedTemplates(tx *gorm.DB, depts map[string]*departmentDatamodel.Department) error {
	log.Println(seedHead("Checklist templates"))

	seeds := []templateSeed{
		{
			name: "Standard offboarding",
			items: []templateDatamodel.ChecklistTemplateItem{
				{Name: "Return laptop and accessories", Category: "equipment", IsMandatory: true},
				{Name: "Return ID badge and access cards", Category: "equipment", IsMandatory: true},
				{Name: "Submit final expense claims", Category: "finance", IsMandatory: true},
				{Name: "Hand over ongoing work", Category: "knowledge", IsMandatory: true},
				{Name: "Exit interview", Category: "hr"},
			},
		},
		{
			name:       "Engineering offboarding",
			department: "ENG",
			items: []templateDatamodel.ChecklistTemplateItem{
				{Name: "Return laptop and accessories", Category: "equipment", IsMandatory: true},
				{Name: "Transfer repository ownership", Category: "access", IsMandatory: true},
				{Name: "Rotate personal API keys and secrets", Category: "access", IsMandatory: true},
				{Name: "Remove on-call rotations", Category: "access", IsMandatory: true},
				{Name: "Write handover notes for owned services", Category: "knowledge", IsMandatory: true},
				{Name: "Exit interview", Category: "hr"},
			},
		},
		{
			name:       "IT offboarding",
			department: "IT",
			items: []templateDatamodel.ChecklistTemplateItem{
				{Name: "Return laptop and accessories", Category: "equipment", IsMandatory: true},
				{Name: "Hand over admin credentials vault", Category: "access", IsMandatory: true},
				{Name: "Document open infrastructure tickets", Category: "knowledge"},
			},
		},
	}

	for _, s := range seeds {
		q := tx.Model(&templateDatamodel.ChecklistTemplate{}).Where("name = ?", s.name)
		var deptID *int64
		if s.department != "" {
			deptID = &depts[s.department].ID
		}

		var count int64
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			log.Printf("%s template %q", seedSkip("exists"), s.name)
			continue
		}

		for i := range s.items {
			s.items[i].SortOrder = i + 1
		}
		t := &templateDatamodel.ChecklistTemplate{
			Name:         s.name,
			DepartmentID: deptID,
			IsActive:     true,
			Items:        s.items,
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		log.Printf("%s template %q with %d items", seedOK("created"), s.name, len(s.items))
	}
	return nil
}
