package sheets

import (
	"time"

	"detox-form-api/internal/models"
)

// headerRow is the spreadsheet header, one column per questionnaire field
// plus submission metadata. Order is load-bearing, Row appends values in
// exactly this order.
var headerRow = []interface{}{
	"Timestamp",
	"Ad Soyad",
	"Yaş",
	"Boy (cm)",
	"Kilo (kg)",
	"Meslek",
	"Sağlık Durumları",
	"Vitamin Eksiklikleri",
	"Kan Testi",
	"Kan PDF'i",
	"Kronik Hastalıklar",
	"Düzenli İlaçlar",
	"Geçmiş Ameliyatlar",
	"Alerjiler",
	"Sindirim Sorunları",
	"Vücut Tipi",
	"Diyet Zorlukları",
	"Diyet Hazırlığı",
	"Kişisel Not",
	"Günlük Öğün Sayısı",
	"Ara Öğün",
	"Su Tüketimi",
	"Katılımcı Aydınlatma Metnini",
	"Katılımcı Açık Rıza Metnini",
	"IP Adresi",
	"User Agent",
}

// Row flattens an application into a sheet row matching headerRow. The
// timestamp column carries the submission time in the reporting timezone.
func Row(app *models.Application, loc *time.Location) []interface{} {
	timestamp := app.CreatedAt
	if t, err := time.ParseInLocation(models.TimestampLayout, app.CreatedAt, loc); err == nil {
		timestamp = t.Format("02.01.2006 15:04:05")
	}

	return []interface{}{
		timestamp,
		app.FullName,
		app.Age.Int(),
		app.Height.Int(),
		app.Weight.Int(),
		app.Occupation,
		app.HealthConditions.Join(),
		app.VitaminDeficiency.Join(),
		string(app.BloodTest),
		app.BloodTestFileURL,
		app.ChronicDiseases.Join(),
		string(app.RegularMedication),
		string(app.PastSurgery),
		app.Allergies.Join(),
		app.DigestiveIssues.Join(),
		string(app.BodyType),
		app.DietChallenges.Join(),
		string(app.DietReadiness),
		app.PersonalNote,
		string(app.MealsPerDay),
		string(app.Snacking),
		string(app.WaterIntake),
		app.ConsentNotice,
		app.ConsentExplicit,
		app.Metadata.IP,
		app.Metadata.UserAgent,
	}
}
