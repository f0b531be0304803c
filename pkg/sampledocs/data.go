package sampledocs

type doctor struct {
	Name, Qualification, Registration, Specialty string
}

type hospital struct {
	Name, Address, GST, Phone string
}

type pharmacy struct {
	Name, License, GST string
}

type diagnosis struct {
	Name     string
	Symptoms []string
}

type medicine struct {
	Name, Strength, Form string
	Price                float64
}

type labParameter struct {
	Name      string
	Unit      string
	Low, High float64
}

var doctors = []doctor{
	{"Dr. Rajesh Kumar", "MBBS, MD", "KA/12345/2015", "General Medicine"},
	{"Dr. Priya Sharma", "MBBS, DNB", "MH/67890/2018", "Pediatrics"},
	{"Dr. Amit Patel", "MBBS, MS", "DL/34567/2020", "Orthopedics"},
	{"Dr. Sunita Reddy", "MBBS, DM", "TN/45678/2016", "Cardiology"},
	{"Dr. Vikram Singh", "MBBS, MD", "UP/23456/2019", "Dermatology"},
}

var hospitals = []hospital{
	{"City Care Hospital", "123 MG Road, Bangalore 560001", "29AABCT1234F1ZP", "080-12345678"},
	{"LifeLine Medical Center", "456 Link Road, Mumbai 400050", "27AABCL5678G1ZQ", "022-87654321"},
	{"Apollo Clinic", "789 Nehru Place, Delhi 110019", "07AABCA9012H1ZR", "011-23456789"},
	{"Fortis Healthcare", "321 Anna Nagar, Chennai 600040", "33AABCF3456I1ZS", "044-98765432"},
}

var pharmacies = []pharmacy{
	{"MedPlus Pharmacy", "KA-BLR-2345", "29AABCM1234J1ZT"},
	{"Apollo Pharmacy", "MH-MUM-6789", "27AABCA5678K1ZU"},
	{"Netmeds Store", "DL-DEL-3456", "07AABCN9012L1ZV"},
}

var diagnoses = []diagnosis{
	{"Viral Fever", []string{"Fever", "Body ache", "Fatigue"}},
	{"Upper Respiratory Tract Infection", []string{"Cough", "Cold", "Sore throat"}},
	{"Gastroenteritis", []string{"Loose stools", "Abdominal pain", "Nausea"}},
	{"Migraine", []string{"Headache", "Nausea", "Photophobia"}},
	{"Allergic Rhinitis", []string{"Sneezing", "Runny nose", "Itchy eyes"}},
	{"Lower Back Pain", []string{"Back pain", "Stiffness", "Limited mobility"}},
	{"Hypertension", []string{"Headache", "Dizziness", "Routine checkup"}},
	{"Type 2 Diabetes", []string{"Increased thirst", "Frequent urination", "Fatigue"}},
}

var medicines = []medicine{
	{"Paracetamol", "500mg", "Tab", 2.5},
	{"Paracetamol", "650mg", "Tab", 3.0},
	{"Amoxicillin", "500mg", "Cap", 12.0},
	{"Azithromycin", "500mg", "Tab", 45.0},
	{"Omeprazole", "20mg", "Cap", 8.0},
	{"Cetirizine", "10mg", "Tab", 3.5},
	{"Metformin", "500mg", "Tab", 2.0},
	{"Amlodipine", "5mg", "Tab", 4.5},
	{"Pantoprazole", "40mg", "Tab", 10.0},
	{"Ibuprofen", "400mg", "Tab", 5.0},
	{"Ondansetron", "4mg", "Tab", 15.0},
	{"Ranitidine", "150mg", "Tab", 6.0},
}

// labPanels is ordered so that seeded selection is reproducible.
var labPanels = []struct {
	Name       string
	Parameters []labParameter
}{
	{"CBC", []labParameter{
		{"Hemoglobin", "g/dL", 12.0, 17.0},
		{"WBC Count", "/cumm", 4000, 11000},
		{"RBC Count", "million/cumm", 4.5, 5.5},
		{"Platelets", "/cumm", 150000, 450000},
		{"PCV", "%", 36, 50},
	}},
	{"LFT", []labParameter{
		{"SGPT (ALT)", "U/L", 10, 40},
		{"SGOT (AST)", "U/L", 10, 40},
		{"Bilirubin Total", "mg/dL", 0.2, 1.2},
		{"Alkaline Phosphatase", "U/L", 44, 147},
		{"Total Protein", "g/dL", 6.0, 8.3},
	}},
	{"KFT", []labParameter{
		{"Blood Urea", "mg/dL", 15, 40},
		{"Serum Creatinine", "mg/dL", 0.7, 1.3},
		{"Uric Acid", "mg/dL", 3.5, 7.2},
		{"Sodium", "mEq/L", 136, 145},
		{"Potassium", "mEq/L", 3.5, 5.1},
	}},
	{"Lipid Profile", []labParameter{
		{"Total Cholesterol", "mg/dL", 125, 200},
		{"Triglycerides", "mg/dL", 50, 150},
		{"HDL Cholesterol", "mg/dL", 40, 60},
		{"LDL Cholesterol", "mg/dL", 60, 130},
		{"VLDL", "mg/dL", 10, 40},
	}},
	{"Blood Sugar", []labParameter{
		{"Fasting Blood Sugar", "mg/dL", 70, 100},
		{"Post Prandial Blood Sugar", "mg/dL", 80, 140},
		{"HbA1c", "%", 4.0, 5.6},
	}},
}

var patientNames = []string{
	"Rahul Verma", "Sneha Gupta", "Mohammed Ali", "Lakshmi Iyer", "Deepak Joshi",
	"Ananya Singh", "Karthik Nair", "Pooja Mehta", "Suresh Babu", "Fatima Khan",
	"Vijay Kumar", "Meera Patel", "Arjun Reddy", "Divya Sharma", "Ravi Shankar",
}

var pathologists = []string{"Dr. S. Mehta", "Dr. R. Gupta", "Dr. K. Rao", "Dr. P. Das"}
