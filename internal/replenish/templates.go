package replenish

// exchange is one curated user/assistant pair.
type exchange struct {
	user string
	ai   string
}

var conversationTemplates = []exchange{
	{"I'm feeling sad today.",
		"Oh no... I'm so sorry you're feeling that way. What's making you feel sad? I'm here to listen."},
	{"I got a promotion at work!",
		"That's amazing! Congratulations! I'm so happy for you! How do you feel about this new role?"},
	{"I'm nervous about my exam tomorrow.",
		"I understand that feeling. Exams can be really stressful. You've prepared for this. Take a deep breath. What helps you feel calmer?"},
	{"I had a fight with my friend.",
		"That sounds really difficult. It's hard when someone you care about hurts you. What happened? I'm here to listen."},
	{"I'm excited about my vacation next week!",
		"That's awesome! Where are you going? I'd love to hear about your plans!"},
	{"I'm worried about my future.",
		"I get that. Thinking about the future can be overwhelming. What's on your mind most? Let's talk about it."},
	{"I made a mistake at work today.",
		"That's tough. Everyone makes mistakes. How are you feeling about it? What happened?"},
	{"I'm grateful for my family.",
		"That's beautiful. Family is so important. What makes you feel grateful today?"},
	{"I don't know what to do with my life.",
		"That's a lot to process. It's okay to feel uncertain. What are you thinking about? I'm here to help you figure it out."},
	{"I'm proud of myself for finishing my project.",
		"That's wonderful! You should be proud! Finishing a project is a big accomplishment. How does it feel?"},
}

var followUps = []string{
	"Tell me more about that.",
	"That's interesting. What else?",
	"I see. How does that make you feel?",
	"I understand. Can you explain more?",
	"That sounds important. What happened next?",
}

var followUpResponses = []string{
	"I'm listening. Please continue.",
	"That's interesting. What else would you like to share?",
	"I understand. How does that make you feel?",
	"Tell me more about that.",
	"I'm here to listen. What's on your mind?",
}

var practiceTemplates = []exchange{
	{"I want to practice my pronunciation.",
		"Great! Let's practice together. What word or phrase would you like to work on? I'll help you pronounce it correctly."},
	{"I need to improve my speaking skills.",
		"That's wonderful! Practice makes perfect. Let's work on your speaking skills together. What would you like to practice?"},
	{"I'm nervous about speaking English.",
		"I understand that feeling. It's completely normal to feel nervous. Let's start with something easy and build your confidence. What topic are you comfortable talking about?"},
	{"Can you help me practice reading aloud?",
		"I'm here to help you practice! Let's work on this together. What would you like to focus on?"},
	{"I'm learning English. This is difficult for me.",
		"I understand. Learning English can be challenging. Let's take it step by step. What's the hardest part for you?"},
	{"I practiced every day this week.",
		"I'm proud of you for practicing! Keep going. What would you like to work on today?"},
}

var gameTemplates = []exchange{
	{"Where can I find the key to the door?",
		"You're looking for something? Let me help you. Have you talked to the shopkeeper? They might know where it is. Or maybe check with the librarian - they often have information about important items."},
	{"How do I complete this quest?",
		"To complete this quest, you'll need to talk to several people. First, visit the village elder to get information. Then, speak with the merchant to get supplies. Finally, talk to the guard to get permission. Each person has a piece of the puzzle!"},
	{"I'm stuck. What should I do next?",
		"Don't worry! There are many people who can help you. Try talking to: the guide at the entrance, the helper at the market, or the advisor at the castle. Each person has different information and can guide you in different ways."},
	{"I talked to the elder like you said.",
		"Good progress! Based on what you learned, try talking to the next person in the chain. Each conversation brings you closer to your goal!"},
	{"I need to collect three items for the blacksmith.",
		"To collect items, you'll need to talk to different people. The collector has rare items, the trader has common supplies, and the artisan can create special items. Start by talking to the collector!"},
}

// translationPair is one graded translation exercise. Correct pairs carry
// confirming feedback; incorrect ones explain the mistake.
type translationPair struct {
	english    string
	vietnamese string
	correct    bool
	feedback   string
}

var translationPairs = []translationPair{
	{"Hello, how are you today?", "Xin chào, hôm nay bạn khỏe không?", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"I love my family very much.", "Tôi rất yêu gia đình của mình.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"The weather is beautiful this morning.", "Thời tiết sáng nay thật đẹp.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"She is reading a book in the library.", "Cô ấy đang đọc sách trong thư viện.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"We will travel to Da Nang next month.", "Chúng tôi sẽ đi Đà Nẵng vào tháng sau.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"My brother works in a hospital.", "Anh trai tôi làm việc ở bệnh viện.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"This restaurant serves delicious food.", "Nhà hàng này phục vụ món ăn ngon.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"I want to learn English every day.", "Tôi muốn học tiếng Anh mỗi ngày.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"The children are playing in the park.", "Bọn trẻ đang chơi trong công viên.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"He drinks coffee every morning.", "Anh ấy uống cà phê mỗi sáng.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"I am very tired after work.", "Tôi rất vui sau giờ làm việc.", false,
		"Chưa đúng. \"Tired\" nghĩa là mệt, không phải vui."},
	{"She bought a new red car.", "Cô ấy bán một chiếc xe màu đỏ mới.", false,
		"Chưa đúng. \"Bought\" nghĩa là mua, không phải bán."},
	{"The cat is sleeping under the table.", "Con mèo đang ngủ trên bàn.", false,
		"Chưa đúng. \"Under\" nghĩa là dưới, không phải trên."},
	{"My sister is younger than me.", "Chị gái tôi lớn tuổi hơn tôi.", false,
		"Chưa đúng. \"Younger\" nghĩa là nhỏ tuổi hơn."},
	{"It is raining heavily outside.", "Trời đang nắng to bên ngoài.", false,
		"Chưa đúng. \"Raining\" nghĩa là trời mưa, không phải nắng."},
	{"They opened a small bakery in town.", "Họ mở một tiệm bánh nhỏ trong thị trấn.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"Please close the window before you leave.", "Vui lòng đóng cửa sổ trước khi bạn rời đi.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
	{"I forgot my umbrella at home.", "Tôi để quên ô ở nhà.", true,
		"Chính xác! Bạn đã hiểu đúng nghĩa."},
}

// translationCarriers wrap a base pair in reported speech for later
// generation rounds.
type translationCarrier struct {
	english    string
	vietnamese string
}

var translationCarriers = []translationCarrier{
	{"My teacher said: %q", "Cô giáo tôi nói: %q"},
	{"I read this sentence yesterday: %q", "Hôm qua tôi đọc câu này: %q"},
	{"The lesson included the sentence %q", "Bài học có câu %q"},
}
