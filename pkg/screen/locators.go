package screen

import "github.com/devicelab-dev/pageflow/pkg/core"

// AppPackage is the package of the app under test.
const AppPackage = "com.hdw.james.rider"

func riderID(id string) string {
	return AppPackage + ":id/" + id
}

// Locators of the rider app, grouped by the node that owns them.
var (
	Content = core.XPath("//*[@resource-id='android:id/content']")

	OnboardingContainer = core.XPath("//*[@resource-id='" + riderID("activitySingleNavFragment") + "']")
	GetStartedButton    = core.XPath("//*[@resource-id='" + riderID("getStartedButton") + "']")

	PhoneNumberField  = core.XPath("//android.widget.EditText[@resource-id='" + riderID("input") + "']")
	CountryCodeButton = core.XPath("//*[@resource-id='" + riderID("spinner") + "']")
	ContinueButton    = core.XPath("//*[@resource-id='" + riderID("continueButton") + "']")
	PhoneTitle        = core.XPath("//android.widget.TextView[@resource-id='" + riderID("title") + "']")
	PhoneDescription  = core.XPath("//android.widget.TextView[@resource-id='" + riderID("description") + "']")
	CountryDropdown   = core.XPath("//android.widget.ListView")
	CountryItems      = core.XPath("//*[@resource-id='" + riderID("text") + "']")

	CodeTitle          = core.XPath("//android.widget.TextView[@resource-id='" + riderID("title") + "']")
	CodeContinueButton = core.XPath("//android.widget.Button[@resource-id='" + riderID("continueButton") + "']")
	CodeInputFields    = core.XPath("//android.widget.EditText[@resource-id='" + riderID("inputEditText") + "']")

	PermissionsTitle         = core.XPath("//android.widget.TextView[@resource-id='" + riderID("permissionsTextTitle") + "']")
	PermissionsContinue      = core.XPath("//android.widget.Button[@resource-id='" + riderID("permissionsContinueButton") + "']")
	AllowLocationButton      = core.XPath("//android.widget.Button[@resource-id='" + riderID("permissionsLocationButton") + "']")
	AllowNotificationsButton = core.XPath("//android.widget.Button[@resource-id='" + riderID("permissionsNotificationButton") + "']")
	AllowWhileUsingAppButton = core.XPath("//android.widget.Button[@resource-id='com.android.permissioncontroller:id/permission_allow_foreground_only_button']")
	AllowSendNotifications   = core.XPath("//android.widget.Button[@resource-id='com.android.permissioncontroller:id/permission_allow_button']")
	PermissionDialog         = core.XPath("//android.widget.LinearLayout[@resource-id='com.android.permissioncontroller:id/grant_dialog']")

	SideMenuButton = core.XPath("//*[@resource-id='" + riderID("MAIN_MENU_ID") + "']")
	RidesTitle     = core.XPath("//*[@text='Rides']")

	ProfileButton    = core.XPath("//android.widget.FrameLayout[@resource-id='" + riderID("profileContainer") + "']/android.view.ViewGroup")
	ProfileNameLabel = core.XPath("//android.widget.TextView[@resource-id='" + riderID("profileName") + "']")
	LogoutButton     = core.XPath("//androidx.recyclerview.widget.RecyclerView[@resource-id='" + riderID("actionList") + "']/android.view.ViewGroup[5]")
	ProfileUpdated   = core.XPath("//*[@text='Profile updated successfully']")

	ProfilePicture = core.XPath("//android.widget.ImageView[@resource-id='" + riderID("profileImageView") + "']")
	FirstNameField = core.XPath("//android.widget.EditText[@resource-id='" + riderID("firstNameInput") + "']")
	LastNameField  = core.XPath("//android.widget.EditText[@resource-id='" + riderID("lastNameInput") + "']")
	DoneButton     = core.XPath("//android.widget.TextView[@resource-id='" + riderID("DEFAULT_TEXT_ACTION_MENU_ID") + "']")
)
