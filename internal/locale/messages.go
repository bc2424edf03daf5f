package locale

var messages = map[string]pair{
	"auth.required":         {"로그인이 필요합니다", "Login required"},
	"auth.invalid":          {"이메일 또는 비밀번호가 올바르지 않습니다", "Invalid email or password"},
	"auth.exists":           {"이미 가입된 이메일입니다", "Email is already registered"},
	"request.invalid":       {"요청 형식이 올바르지 않습니다", "Invalid request payload"},
	"request.invalidID":     {"잘못된 ID입니다", "Invalid id"},
	"spot.notFound":         {"스팟을 찾을 수 없습니다", "Spot not found"},
	"divelog.notFound":      {"로그를 찾을 수 없습니다", "Dive log not found"},
	"divelog.invalid":       {"날짜와 입력값 형식을 확인해주세요", "Check the date and field formats"},
	"myspot.notFound":       {"내 스팟을 찾을 수 없습니다", "Personal spot not found"},
	"myspot.invalid":        {"이름과 좌표를 확인해주세요", "Check the name and coordinates"},
	"review.notFound":       {"리뷰를 찾을 수 없습니다", "Review not found"},
	"review.forbidden":      {"본인이 작성한 리뷰만 수정할 수 있습니다", "You can only modify your own reviews"},
	"review.invalid":        {"별점, 제목, 내용을 확인해주세요", "Check rating, title and content"},
	"media.type":            {"지원하지 않는 파일 형식입니다", "Unsupported file type"},
	"media.size":            {"파일 크기가 너무 큽니다", "File is too large"},
	"profile.notFound":      {"프로필을 찾을 수 없습니다", "Profile not found"},
	"profile.invalid":       {"닉네임, 소개, 언어 설정을 확인해주세요", "Check nickname, bio and language"},
	"profile.photoRequired": {"사진 파일을 선택해주세요", "Choose a photo to upload"},
	"cert.invalid":          {"자격증 단체 또는 레벨이 올바르지 않습니다", "Invalid certification organization or level"},
	"cert.notFound":         {"자격증을 찾을 수 없습니다", "Certification not found"},
	"achievement.invalid":   {"해금한 업적만 대표 배지로 선택할 수 있습니다", "Only unlocked achievements can be featured"},
	"weather.invalidCoords": {"좌표가 올바르지 않습니다", "Invalid coordinates"},
	"weather.fetchError":    {"날씨 데이터 로딩 실패", "Failed to load weather data"},
	"contact.invalid":       {"이름, 이메일, 내용을 입력해주세요", "Name, email and message are required"},
	"import.alreadyDone":    {"이미 가져오기를 완료했습니다", "Legacy data was already imported"},
	"auth.invalidInput":     {"이메일과 4자 이상의 비밀번호를 입력해주세요", "Enter an email and a password of at least 4 characters"},
	"server.error":          {"서버 오류가 발생했습니다", "Internal server error"},
}

// Message returns the localized text for key, or the key itself when it is not registered.
func Message(language, key string) string {
	if p, ok := messages[key]; ok {
		return pick(language, p)
	}
	return key
}
