package deck

import "github.com/meiziya0402-source/PPT/internal/models"

// seedSlides - стартовая колода новой сессии.
func seedSlides(theme string) []models.Slide {
	cover := models.NewSlide("1", models.SlideCover)
	cover.Title = "阿拉斯加座头鲸"
	cover.Subtitle = "见证自然奇迹"
	cover.Footer = "2024 年度回顾"

	agenda := models.NewSlide("2", models.SlideAgenda)
	agenda.Title = "目录"
	agenda.Subtitle = "汇报概览"
	agenda.Footer = "Agenda"
	agenda.Content = models.ListContent{BulletPoints: []string{"年度摘要", "关键数据", "项目亮点", "未来展望"}}

	metric := models.NewSlide("3", models.SlideMetric)
	metric.Title = "核心数据"
	metric.Subtitle = "同比增长率"
	metric.Footer = "Key Metrics"
	metric.Content = models.MetricContent{BigValue: "+125%"}

	slides := []models.Slide{cover, agenda, metric}
	for i := range slides {
		slides[i].ThemeColor = theme
	}
	return slides
}
