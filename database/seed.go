package database

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/utils/auth"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunSeeds migrates the schema and runs every seed function
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedRegistrar(); err != nil {
		return fmt.Errorf("failed to seed registrar: %w", err)
	}

	if err := s.SeedInstitutions(); err != nil {
		return fmt.Errorf("failed to seed institutions: %w", err)
	}

	if err := s.SeedSubjects(); err != nil {
		return fmt.Errorf("failed to seed subjects: %w", err)
	}

	if err := s.SeedScholarshipRules(); err != nil {
		return fmt.Errorf("failed to seed scholarship rules: %w", err)
	}

	if err := s.SeedFeeStructures(); err != nil {
		return fmt.Errorf("failed to seed fee structures: %w", err)
	}

	if err := s.SeedDemoStudent(); err != nil {
		return fmt.Errorf("failed to seed demo student: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedRegistrar creates the default registrar user
func (s *Seeder) SeedRegistrar() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleRegistrar).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Registrar already exists, skipping...")
		return nil
	}

	registrarEmail := os.Getenv("REGISTRAR_EMAIL")
	registrarPassword := os.Getenv("REGISTRAR_PASSWORD")

	if registrarEmail == "" || registrarPassword == "" {
		log.Println("⚠️  REGISTRAR_EMAIL and REGISTRAR_PASSWORD environment variables not set, skipping registrar creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(registrarPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	registrar := &model.User{
		Email:        registrarEmail,
		PasswordHash: passwordHash,
		Name:         "University Registrar",
		Role:         model.RoleRegistrar,
		TokenVersion: 0,
	}

	if err := s.db.Create(registrar).Error; err != nil {
		return err
	}

	log.Printf("✅ Created registrar: %s\n", registrar.Email)
	return nil
}

// SeedInstitutions creates the sample university hierarchy
func (s *Seeder) SeedInstitutions() error {
	var count int64
	if err := s.db.Model(&model.University{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Institutions already exist, skipping...")
		return nil
	}

	university := model.University{
		Name:     "Dr. A.P.J. Abdul Kalam Technical University",
		Code:     "AKTU",
		Location: "Lucknow, Uttar Pradesh",
		Website:  "https://aktu.ac.in",
		IsActive: true,
	}
	if err := s.db.Create(&university).Error; err != nil {
		return err
	}

	school := model.School{
		UniversityID: university.ID,
		Name:         "School of Engineering",
		Code:         "SOE",
	}
	if err := s.db.Create(&school).Error; err != nil {
		return err
	}

	department := model.Department{
		SchoolID: school.ID,
		Name:     "Computer Science & Engineering",
		Code:     "CSE",
	}
	if err := s.db.Create(&department).Error; err != nil {
		return err
	}

	batch := model.Batch{
		DepartmentID: department.ID,
		Name:         "2023-2027",
		StartYear:    2023,
		EndYear:      2027,
	}
	if err := s.db.Create(&batch).Error; err != nil {
		return err
	}

	log.Println("✅ Created university > school > department > batch hierarchy")
	return nil
}

// SeedSubjects creates the CSE curriculum for semesters 1 and 2
func (s *Seeder) SeedSubjects() error {
	var count int64
	if err := s.db.Model(&model.Subject{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Subjects already exist, skipping...")
		return nil
	}

	department, school, err := s.findSeedDepartment()
	if err != nil {
		return err
	}

	subjects := []model.Subject{
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 1, Name: "Programming Fundamentals", Code: "CSE101", Type: model.SubjectTheory, Credits: 4},
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 1, Name: "Engineering Mathematics I", Code: "MTH101", Type: model.SubjectTheory, Credits: 4},
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 1, Name: "Digital Logic Design", Code: "CSE102", Type: model.SubjectTheory, Credits: 3},
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 1, Name: "Programming Lab", Code: "CSE103", Type: model.SubjectPractical, Credits: 2},
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 2, Name: "Data Structures", Code: "CSE201", Type: model.SubjectTheory, Credits: 4},
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 2, Name: "Engineering Mathematics II", Code: "MTH201", Type: model.SubjectTheory, Credits: 4},
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 2, Name: "Computer Organization", Code: "CSE202", Type: model.SubjectTheory, Credits: 3},
		{UniversityID: school.UniversityID, SchoolID: school.ID, DepartmentID: department.ID, Semester: 2, Name: "Data Structures Lab", Code: "CSE203", Type: model.SubjectPractical, Credits: 2},
	}

	if err := s.db.Create(&subjects).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d subjects\n", len(subjects))
	return nil
}

// SeedScholarshipRules creates the merit discount brackets
func (s *Seeder) SeedScholarshipRules() error {
	var count int64
	if err := s.db.Model(&model.ScholarshipRule{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Scholarship rules already exist, skipping...")
		return nil
	}

	var university model.University
	if err := s.db.First(&university).Error; err != nil {
		return err
	}

	rules := []model.ScholarshipRule{
		{
			UniversityID:       university.ID,
			Name:               "Merit Scholarship",
			MinPercentage:      80,
			MaxPercentage:      89.99,
			DiscountPercentage: 25,
			IsActive:           true,
		},
		{
			UniversityID:       university.ID,
			Name:               "Academic Excellence Scholarship",
			MinPercentage:      90,
			MaxPercentage:      100,
			DiscountPercentage: 50,
			IsActive:           true,
		},
	}

	if err := s.db.Create(&rules).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d scholarship rules\n", len(rules))
	return nil
}

// SeedFeeStructures creates per-semester fee templates for the engineering
// school
func (s *Seeder) SeedFeeStructures() error {
	var count int64
	if err := s.db.Model(&model.FeeStructure{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Fee structures already exist, skipping...")
		return nil
	}

	var school model.School
	if err := s.db.First(&school).Error; err != nil {
		return err
	}

	componentsJSON, err := json.Marshal([]model.FeeComponent{
		{Label: "Tuition Fee", Amount: 93000},
		{Label: "Library Fee", Amount: 5000},
		{Label: "Examination Fee", Amount: 2000},
	})
	if err != nil {
		return err
	}

	structures := make([]model.FeeStructure, 0, 8)
	for semester := 1; semester <= 8; semester++ {
		structures = append(structures, model.FeeStructure{
			UniversityID:   school.UniversityID,
			SchoolID:       school.ID,
			SemesterNumber: semester,
			BaseAmount:     100000,
			Components:     datatypes.JSON(componentsJSON),
			IsActive:       true,
		})
	}

	if err := s.db.Create(&structures).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d fee structures\n", len(structures))
	return nil
}

// SeedDemoStudent creates a semester-1 student with a 92% result sheet so the
// release flow resolves the 50 percent discount bracket out of the box.
func (s *Seeder) SeedDemoStudent() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleStudent).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Demo student already exists, skipping...")
		return nil
	}

	department, school, err := s.findSeedDepartment()
	if err != nil {
		return err
	}

	var batch model.Batch
	if err := s.db.Where("department_id = ?", department.ID).First(&batch).Error; err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword("Student@123")
	if err != nil {
		return err
	}

	student := model.User{
		Email:           "aarav.sharma@example.edu",
		PasswordHash:    passwordHash,
		Name:            "Aarav Sharma",
		Role:            model.RoleStudent,
		UniversityID:    school.UniversityID,
		SchoolID:        school.ID,
		DepartmentID:    department.ID,
		BatchID:         batch.ID,
		RollNo:          "CSE23001",
		CurrentSemester: 1,
		PromotionState:  model.PromotionAwaitingPayment,
	}
	if err := s.db.Create(&student).Error; err != nil {
		return err
	}

	var subjects []model.Subject
	if err := s.db.Where("department_id = ? AND semester = ?", department.ID, 1).
		Order("code ASC").Find(&subjects).Error; err != nil {
		return err
	}

	// Totals average to 92% across the semester-1 subjects
	totals := []float64{95, 90, 91, 92}
	results := make([]model.ExamResult, 0, len(subjects))
	for i, subject := range subjects {
		total := 92.0
		if i < len(totals) {
			total = totals[i]
		}
		results = append(results, model.ExamResult{
			StudentID:    student.ID,
			SubjectID:    subject.ID,
			Semester:     1,
			UniversityID: school.UniversityID,
			SchoolID:     school.ID,
			DepartmentID: department.ID,
			Internal:     total * 0.3,
			External:     total * 0.7,
			Total:        total,
			Grade:        "A",
			Credits:      subject.Credits,
		})
	}
	if len(results) > 0 {
		if err := s.db.Create(&results).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Created demo student %s with %d semester-1 results\n", student.Email, len(results))
	return nil
}

func (s *Seeder) findSeedDepartment() (*model.Department, *model.School, error) {
	var department model.Department
	if err := s.db.First(&department).Error; err != nil {
		return nil, nil, err
	}
	var school model.School
	if err := s.db.First(&school, department.SchoolID).Error; err != nil {
		return nil, nil, err
	}
	return &department, &school, nil
}
