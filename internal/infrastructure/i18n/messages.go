package i18n

type texts struct {
	ru string
	en string
}

// messages is the translation catalog. Keys are grouped by prefix:
// field.* verbose field names, <choice>.<code> choice labels, empty.* list
// placeholders, page.* form labels, error.<CODE> domain error texts and
// mail.* / sms.* notification templates.
var messages = map[string]texts{
	// Field names
	"field.first_name":         {"Фамилия", "Last name"},
	"field.second_name":        {"Имя", "First name"},
	"field.phone_number":       {"Телефон", "Phone"},
	"field.mobile_number":      {"Мобильный телефон", "Mobile phone"},
	"field.avatar":             {"Фотография", "Photo"},
	"field.user":               {"Эл.почта", "E-mail"},
	"field.login":              {"Логин", "Login"},
	"field.division":           {"Подразделение", "Division"},
	"field.role":               {"Роль", "Role"},
	"field.lang":               {"Язык", "Language"},
	"field.company":            {"Компания", "Company"},
	"field.position":           {"Должность", "Position"},
	"field.email":              {"Эл.почта", "E-mail"},
	"field.birth_date":         {"Дата рождения", "Birth date"},
	"field.status":             {"Статус", "Status"},
	"field.comment":            {"Комментарий", "Comment"},
	"field.ident":              {"Номер контракта", "Contract number"},
	"field.price":              {"Цена всего", "Total price"},
	"field.description":        {"Описание", "Description"},
	"field.deal_date":          {"Дата", "Date"},
	"field.deal_time":          {"Время", "Time"},
	"field.customer":           {"Клиент", "Customer"},
	"field.sales_person":       {"Менеджер", "Manager"},
	"field.products":           {"Список продуктов", "Products"},
	"field.sku":                {"Номер товара ( SKU )", "Product number (SKU)"},
	"field.action":             {"Действие", "Action"},
	"field.action_description": {"Комментарий", "Comment"},
	"field.due_at":             {"Дата и время", "Date and time"},

	// Customer status
	"customer_status.C": {"Делал покупку", "Made a purchase"},
	"customer_status.V": {"VIP", "VIP"},
	"customer_status.I": {"Интересовался покупкой", "Interested in buying"},
	"customer_status.N": {"Негативно настроен", "Negative"},
	"customer_status.O": {"Что-то еще", "Something else"},

	// Deal status
	"deal_status.E": {"Первый контакт", "First contact"},
	"deal_status.D": {"Принятие решения", "Decision making"},
	"deal_status.H": {"Согласование контракта", "Harmonization of contract"},
	"deal_status.S": {"Контракт подписан", "The contract is signed"},
	"deal_status.P": {"Ожидание денег", "Awaiting payment"},
	"deal_status.O": {"Контракт выполнен", "Contract executed successfully"},
	"deal_status.A": {"Мертвый контракт", "Dead deal"},

	// Todo action
	"todo_action.E": {"Электронная почта", "E-mail"},
	"todo_action.P": {"Телефонный звонок", "Phone call"},
	"todo_action.L": {"Личная встреча", "Meeting"},
	"todo_action.S": {"Почта бумажная", "Post mail"},
	"todo_action.O": {"Что-то еще", "Something else"},

	// Sales role
	"sales_role.M": {"Менеджер", "Manager"},
	"sales_role.H": {"Руководитель отдела продаж", "Head of sales"},
	"sales_role.D": {"Директор", "Director"},
	"sales_role.A": {"Администратор", "Administrator"},

	"lang.ru": {"Русский", "Russian"},
	"lang.en": {"Английский", "English"},

	// Empty lists
	"empty.sales_persons": {
		"Пока нет ни одного менеджера по продажам. Для добавления используйте соответствующий пункт меню",
		"There are no sales managers yet. Use the corresponding menu item to add one",
	},
	"empty.todos": {
		"Пока нет ни одного запланированного дела. Для добавления используйте соответствующий пункт меню",
		"There are no planned actions yet. Use the corresponding menu item to add one",
	},
	"empty.customers": {
		"Пока нет ни одного клиента. Для добавления используйте соответствующий пункт меню",
		"There are no customers yet. Use the corresponding menu item to add one",
	},
	"empty.deals": {
		"Пока нет ни одной сделки. Для добавления используйте соответствующий пункт меню",
		"There are no deals yet. Use the corresponding menu item to add one",
	},
	"empty.products": {
		"Пока нет ни одного продукта. Для добавления используйте соответствующий пункт меню",
		"There are no products yet. Use the corresponding menu item to add one",
	},
	"empty.users": {
		"Пока нет ни одного пользователя",
		"There are no users yet",
	},

	// Login and registration pages
	"page.login.title":                   {"Вход", "Sign in"},
	"page.login.username":                {"Логин", "Login"},
	"page.login.password":                {"Пароль", "Password"},
	"page.login.submit":                  {"Войти", "Sign in"},
	"page.register.title":                {"Регистрация", "Sign up"},
	"page.register.username":             {"Логин", "Login"},
	"page.register.username_placeholder": {"Логин ( только A-z,1-9,@/./+/-/_ )", "Login (A-z, 0-9, @ . + - _ only)"},
	"page.register.email":                {"Электронная почта", "E-mail"},
	"page.register.password1":            {"Пароль", "Password"},
	"page.register.password1_placeholder": {
		"Пароль. Не менее 8 знаков, буквы и цифры",
		"Password. At least 8 characters, letters and digits",
	},
	"page.register.password2": {"Подтверждение пароля", "Password confirmation"},
	"page.register.password2_placeholder": {
		"Подтверждение пароля. Оба пароля должны совпадать.",
		"Password confirmation. Both passwords must match.",
	},
	"page.register.submit": {"Зарегистрироваться", "Sign up"},
	"auth.logged_out":      {"Вы вышли из системы", "You have been signed out"},

	// Domain errors
	"error.SALESPERSON_REQUIRED": {
		"Учетная запись пользователя должна быть связанна с записью персонала или иметь статус АДМИНИСТРАТОРА.",
		"The user account must be linked to a staff record or have the ADMINISTRATOR status.",
	},
	"error.TENANT_CREATE_FAILED":   {"Что-то пошло не так", "Something went wrong"},
	"error.INVALID_CREDENTIALS":    {"Неверный логин или пароль", "Invalid login or password"},
	"error.ACCOUNT_PENDING":        {"Учетная запись еще не активирована. Проверьте почту", "The account is not activated yet. Check your e-mail"},
	"error.ACCOUNT_DEACTIVATED":    {"Учетная запись отключена", "The account is deactivated"},
	"error.ACCOUNT_LOCKED":         {"Учетная запись временно заблокирована", "The account is temporarily locked"},
	"error.NOT_FOUND":              {"Запись не найдена", "Record not found"},
	"error.FORBIDDEN":              {"Недостаточно прав", "Access denied"},
	"error.UNAUTHORIZED":           {"Требуется вход в систему", "Authentication required"},
	"error.ALREADY_EXISTS":         {"Такая запись уже существует", "The record already exists"},
	"error.VALIDATION_ERROR":       {"Проверьте правильность заполнения полей", "Please check the form fields"},
	"error.INVALID_USERNAME":       {"< 30 символов. Допустимо только - A-z,1-9,@/./+/-/", "Up to 30 characters: A-z, 0-9, @ . + - _"},
	"error.USERNAME_TAKEN":         {"Пользователь с таким логином уже существует", "A user with this login already exists"},
	"error.EMAIL_TAKEN":            {"Пользователь с такой электронной почтой уже существует", "A user with this e-mail already exists"},
	"error.PASSWORD_MISMATCH":      {"Пароли не совпадают", "The passwords do not match"},
	"error.INVALID_PASSWORD":       {"Пароль должен быть не менее 8 знаков и содержать буквы и цифры", "The password must have at least 8 characters with letters and digits"},
	"error.INVALID_PHONE":          {"Телефонный номер должен быть в формате: '+999999999. До 15 цифр.", "Phone number must be entered in the format '+999999999'. Up to 15 digits."},
	"error.INVALID_EMAIL":          {"Введите правильный адрес электронной почты", "Enter a valid e-mail address"},
	"error.INVALID_ACTIVATION_KEY": {"Ссылка активации недействительна", "The activation link is invalid"},
	"error.ACTIVATION_KEY_EXPIRED": {"Срок действия ссылки активации истек", "The activation link has expired"},
	"error.IDENT_TAKEN":            {"Сделка с таким номером контракта уже существует", "A deal with this contract number already exists"},
	"error.SKU_TAKEN":              {"Товар с таким номером уже существует", "A product with this SKU already exists"},
	"error.DESCRIPTION_TAKEN":      {"Товар с таким описанием уже существует", "A product with this description already exists"},
	"error.PRODUCT_IN_USE":         {"Товар используется в сделках", "The product is used in deals"},
	"error.DEAL_STATUS_DUPLICATE":  {"Статус на эту дату и время уже записан", "A status is already recorded for this date and time"},
	"error.SALESPERSON_EXISTS":     {"Пользователь уже связан с записью персонала", "The user is already linked to a staff record"},
	"error.CANNOT_DELETE_SELF":     {"Нельзя удалить свою учетную запись", "You cannot delete your own account"},
	"error.INVALID_AVATAR":         {"Допустимы изображения JPEG, PNG, GIF или WebP", "Only JPEG, PNG, GIF or WebP images are allowed"},
	"error.FILE_TOO_LARGE":         {"Файл слишком большой", "The file is too large"},
	"error.TOO_MANY_REQUESTS":      {"Слишком много запросов. Попробуйте позже", "Too many requests. Try again later"},
	"error.INTERNAL_ERROR":         {"Что-то пошло не так", "Something went wrong"},
	"error.TENANT_INACTIVE":        {"Организация отключена", "The organization is disabled"},
	"error.TENANT_NOT_FOUND":       {"Организация не найдена", "Organization not found"},
	"error.TOKEN_EXPIRED":          {"Сессия истекла. Войдите снова", "The session has expired. Please sign in again"},
	"error.TOKEN_INVALID":          {"Недействительный токен", "Invalid token"},
	"error.TOKEN_REVOKED":          {"Сессия завершена. Войдите снова", "The session was closed. Please sign in again"},
	"error.BAD_REQUEST":            {"Некорректный запрос", "Bad request"},
	"error.CONCURRENCY_CONFLICT":   {"Запись была изменена другим пользователем", "The record was changed by another user"},

	// Notifications
	"mail.activation.subject": {"Активация учетной записи %s", "Activate your %s account"},
	"mail.activation.body": {
		"Здравствуйте, %s!\n\nДля активации учетной записи перейдите по ссылке:\n%s\n\nСсылка действительна 24 часа.",
		"Hello, %s!\n\nFollow the link to activate your account:\n%s\n\nThe link is valid for 24 hours.",
	},
	"mail.reminder.subject": {"Напоминание: %s в %s", "Reminder: %s at %s"},
	"mail.reminder.body": {
		"%s, запланировано действие «%s» на %s.\n\n%s",
		"%s, the action \"%s\" is planned for %s.\n\n%s",
	},
	"sms.reminder": {"Напоминание: %s в %s. %s", "Reminder: %s at %s. %s"},
}
