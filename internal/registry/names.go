package registry

// Fixed entity and violation name lists. These mirror the directorate's paper
// forms; order is load-bearing (row IDs are 1-based positions in these lists).

var PrecinctNames = []string{
	"قاطع الكرخ",
	"قاطع الرصافة",
	"قاطع الكرادة",
	"قاطع الاعظمية",
	"قاطع الكاظمية",
	"قاطع المنصور",
	"قاطع الدورة",
	"قاطع الشعب",
	"قاطع مدينة الصدر",
	"قاطع بغداد الجديدة",
}

var WeighStationNames = []string{
	"محطة وزن التاجي",
	"محطة وزن النهروان",
	"محطة وزن ابو غريب",
	"محطة وزن الراشدية",
	"محطة وزن الزعفرانية",
}

var RadarLocations = []string{
	"رادار سريع محمد القاسم",
	"رادار قناة الجيش",
	"رادار طريق المطار",
	"رادار ساحة عدن",
	"رادار جسر ذو الطابقين",
	"رادار طريق بغداد - الحلة",
	"رادار تقاطع المسبح",
	"رادار ساحة النسور",
}

var ViolationNames = []string{
	"الوقوف الممنوع",
	"عدم الامتثال للإشارة الضوئية او اشارة رجل المرور",
	"السير عكس الاتجاه",
	"الزجاج المضلل والستائر",
	"عدم ارتداء حزام الامان ( للسائق او الراكب الذي بجانبه ) او جلوس الاطفال دون سن (8 سنوات ) في المقعد الامامي للسيارة",
	"عدم تثبيت لوحات مفردة او مزدوجة ( بدون لوحات تسجيل )",
	"قيادة مركبة بإجازة سوق غير مخصصة بنوع المركبة",
	"عدم حمل (إجازة سوق او سنوية) او الامتناع عن اعطائها",
	"عدم تجديد (إجازة سوق او السنوية ) بعد مرور (30) يوم",
	"م0ب(3) لسنة 2019 استخدام السيارات الخصوصي للإجرة",
	"مخالفات مبيت الحمل او السيارات الكبيرة داخل الاحياء",
	"م ب رقم ( 1 ) لسنة 2012 قيادة الدراجات النارية من الساعة 6 مساءً ولغاية 6 صباحا . استقلال الدراجة من قبل شخصين",
	"الدراجات المحجوزة",
	"المركبات المحجوزة",
	"حجز مركبات الفحص المؤقت",
	"قيادة الدراجات النارية سعة محركها تقل عن (40 cc ) في الشوارع الرئيسية",
	"التجاوز الخطر",
	"استخدام الهاتف النقال اثناء القيادة",
	"السرعة فوق المحدد قانونا",
	"عدم اعطاء افضلية المرور للمشاة",
	"التوقف على خطوط عبور المشاة",
	"قيادة مركبة بدون اجازة سوق",
	"عدم حمل سنوية المركبة",
	"انتهاء نفاذ سنوية المركبة",
	"التحميل الزائد عن الحمولة المقررة",
	"نقل الركاب بأجر بدون اجازة",
	"عدم تثبيت علامة التحذير عند التوقف الاضطراري",
	"استعمال منبه غير قانوني",
	"تصاعد دخان كثيف من المركبة",
	"عدم صلاحية الاطارات",
	"عدم وجود اطفائية او صندوق اسعافات اولية",
	"وقوف المركبة في الاماكن المخصصة لذوي الاحتياجات الخاصة",
	"السياقة بصورة متهورة",
	"قطع رتل عسكري او موكب رسمي",
	"عدم الامتثال لاشارة الوقوف",
	"فتح باب المركبة بصورة مفاجئة",
	"الرجوع الى الخلف بصورة خطرة",
	"الانعطاف من غير المسرب المخصص",
	"عدم استعمال الاشارة عند الانعطاف",
	"السير ببطء يعرقل حركة المرور",
	"تجاوز الحمولة المسموحة للركاب",
	"تثبيت لوحات غير مجازة او مزورة",
	"تغيير لون المركبة بدون موافقة",
	"اضافة او حذف منظومة غاز بدون موافقة",
	"تثبيت اجهزة تنبيه خاصة بالمركبات الحكومية",
	"استعمال اضوية عالية مبهرة داخل المدينة",
	"عدم وجود اضوية امامية او خلفية",
	"قيادة المركبة ليلا بدون اضوية",
	"عدم ترقين قيد المركبة المباعة",
	"امتناع سائق الاجرة عن نقل الركاب",
	"زيادة اجرة النقل عن التسعيرة المقررة",
	"تشغيل مسجل بصوت عال مزعج",
	"رمي الاوساخ من المركبة اثناء السير",
	"الكتابة او اللصق على جسم المركبة بدون موافقة",
	"نقل مواد خطرة دون موافقة",
	"عدم تغطية الحمولة المتطايرة",
	"عدم ربط الحمولة بصورة محكمة",
	"السير في المسرب الايسر للمركبات البطيئة",
	"قيادة مركبة تحت تأثير الكحول او المخدرات",
	"التفحيط والاستعراض بالمركبة",
}

var WeighStationViolationNames = []string{
	"تجاوز الحمولة المحورية المسموح بها",
	"عدم الدخول الى محطة الوزن",
	"التلاعب بوثيقة الوزن",
	"نقل حمولة بدون وثيقة وزن",
	"تجاوز الابعاد المسموح بها للحمولة",
	"عدم تثبيت الحمولة",
	"سير مركبات الحمل خارج الاوقات المحددة",
	"عدم حمل اجازة نقل البضائع",
}

var RadarViolationNames = []string{
	"تجاوز السرعة المحددة بأقل من 20 كم/س",
	"تجاوز السرعة المحددة بين 20 و 40 كم/س",
	"تجاوز السرعة المحددة بأكثر من 40 كم/س",
	"السير بسرعة تقل عن الحد الادنى",
	"تجاوز الاشارة الضوئية الحمراء (رصد الكاميرا)",
	"السير على كتف الطريق",
}

// Pages whose access may be gated from the control panel, with display titles.
var PageTitles = map[string]string{
	"precincts":                 "مواقف القواطع",
	"weigh_stations":            "محطات الوزن",
	"radars":                    "الرادارات",
	"reports":                   "التقارير والمجاميع",
	"radars_summary":            "ملخص الرادارات",
	"weigh_stations_summary":    "ملخص محطات الوزن",
	"accidents_summary":         "ملخص الحوادث",
	"closures_summary":          "ملخص القطوعات",
	"activities_summary":        "ملخص النشاطات",
	"judgments_summary":         "ملخص قرارات الحكم",
	"cars_and_licenses":         "بيانات السيارات والإجازات",
	"cars_and_licenses_summary": "ملخص السيارات والإجازات",
}

var VehicleTypes = []string{
	"خصوصي",
	"أجرة",
	"حمل",
	"دراجة نارية",
	"إنشائية",
	"زراعية",
	"أخرى(حكومية)",
}

var LicenseTypes = []string{
	"خصوصي",
	"عمومي",
	"خاصة",
	"اخرى",
}
