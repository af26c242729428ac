package service

import (
	"fmt"
	"strings"

	"github.com/studybuddy/studybuddy-api/internal/models"
)

// SystemPrompt frames the model as an instructional designer. Kept as a
// constant so the same framing applies to every generation request.
const SystemPrompt = `You are an expert educational content creator and instructional designer with 15+ years of experience in university-level curriculum development. You specialize in creating engaging, pedagogically sound educational materials that promote active learning and critical thinking.

Your expertise includes:
- Bloom's Taxonomy application in question design
- Cognitive Load Theory principles
- Assessment design and rubric creation
- Multimedia learning principles
- Differentiated instruction strategies

Always ensure content is:
- Academically rigorous and age-appropriate
- Aligned with learning objectives
- Varied in difficulty levels
- Culturally sensitive and inclusive
- Engaging and interactive`

// BuildPrompt renders the user prompt for one course week. It is a pure
// function of the course record and the syllabus entry, so identical inputs
// always yield an identical prompt.
func BuildPrompt(course *models.Course, week models.WeeklyContent) string {
	var b strings.Builder

	b.WriteString("Create comprehensive educational content for a university course with the following specifications:\n\n")

	b.WriteString("**COURSE CONTEXT:**\n")
	fmt.Fprintf(&b, "- Course: %s (%s)\n", course.Name, course.Code)
	fmt.Fprintf(&b, "- Level: %s\n", course.Level)
	fmt.Fprintf(&b, "- Credits: %d\n", course.Credits)
	fmt.Fprintf(&b, "- Semester: %s\n", course.Semester)
	fmt.Fprintf(&b, "- Course Description: %s\n", course.Description)
	fmt.Fprintf(&b, "- Learning Outcomes: %s\n", course.LearningOutcomes)
	fmt.Fprintf(&b, "- Assessment Mode: %s\n\n", course.AssessmentMode)

	fmt.Fprintf(&b, "**WEEK %d SPECIFICATIONS:**\n", week.Week)
	fmt.Fprintf(&b, "- Topics: %s\n", week.Topics)
	fmt.Fprintf(&b, "- Study Materials: %s\n", week.StudyMaterials)
	fmt.Fprintf(&b, "- Prerequisites: %s\n\n", course.Requirements)

	b.WriteString(`**CONTENT REQUIREMENTS:**

1. **Multiple Choice Questions (5 questions):**
   - Mix of difficulty levels (2 easy, 2 medium, 1 hard)
   - Test different cognitive levels (knowledge, comprehension, application, analysis)
   - Include realistic distractors
   - Provide clear explanations

2. **Quiz Questions (4 questions):**
   - 2 short answer (5-10 points each)
   - 2 essay questions (15-25 points each)
   - Include detailed rubrics
   - Align with learning outcomes

3. **Easy Questions (3 questions):**
   - Focus on basic concepts and definitions
   - Suitable for review and reinforcement
   - 5-10 points each

4. **Video Suggestions (4 videos):**
   - Vary in length (5-20 minutes)
   - Include different perspectives and formats
   - Provide specific search queries
   - Match course level

5. **PowerPoint Presentation (15-20 slides):**
   - Logical flow from introduction to conclusion
   - Mix of slide types for engagement
   - Include discussion prompts
   - Align with week's learning objectives

**QUALITY STANDARDS:**
- All content must be academically rigorous
- Questions should be clear and unambiguous
- Avoid cultural bias or stereotypes
- Include varied assessment methods
- Ensure content builds progressively
- Use active voice and clear language

Generate content that promotes deep learning, critical thinking, and practical application of concepts.`)

	return b.String()
}
